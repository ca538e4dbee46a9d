package voice

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/brainvault/service-idea-core/pkg/speech"
)

// fakeTranscriber returns a canned transcript or error and records whether
// it was invoked.
type fakeTranscriber struct {
	transcript *speech.Transcript
	err        error
	called     bool
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (*speech.Transcript, error) {
	f.called = true
	return f.transcript, f.err
}

// fakeBlobStore records uploads or fails every Put.
type fakeBlobStore struct {
	fail bool
	keys []string
}

func (f *fakeBlobStore) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.fail {
		return "", errors.New("bucket unavailable")
	}
	f.keys = append(f.keys, key)
	return "https://blobs.example.com/" + key, nil
}

func wavBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, "RIFF")
	return b
}

func TestValidateAudioSignatures(t *testing.T) {
	cases := []struct {
		name    string
		prefix  []byte
		wantErr error
	}{
		{"wav", []byte("RIFF"), nil},
		{"mp3 tagged", []byte("ID3"), nil},
		{"mp3 raw frame", []byte{0xFF, 0xFB}, nil},
		{"ogg", []byte("OggS"), nil},
		{"plain text", []byte("hello"), ErrUnsupportedFormat},
		{"empty", nil, ErrUnsupportedFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audio := append(bytes.Clone(tc.prefix), make([]byte, 32)...)
			err := ValidateAudio(audio)
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestValidateAudioSizeCap(t *testing.T) {
	assert.NoError(t, ValidateAudio(wavBytes(maxAudioBytes)))
	assert.ErrorIs(t, ValidateAudio(wavBytes(maxAudioBytes+1)), ErrAudioTooLarge)
}

func TestTranscribeRejectsOversizedBeforeBackendCall(t *testing.T) {
	ft := &fakeTranscriber{transcript: &speech.Transcript{Text: "x"}}
	svc := NewService(ft, nil, zap.NewNop().Sugar())

	_, err := svc.Transcribe(context.Background(), "u1", wavBytes(11*1024*1024), "big.wav")
	assert.ErrorIs(t, err, ErrAudioTooLarge)
	assert.False(t, ft.called)
}

func TestTranscribeWithoutBackend(t *testing.T) {
	svc := NewService(nil, nil, zap.NewNop().Sugar())
	_, err := svc.Transcribe(context.Background(), "u1", wavBytes(64), "a.wav")
	assert.ErrorIs(t, err, ErrTranscriberUnavailable)
}

func TestTranscribeBackendFailureIsFatal(t *testing.T) {
	ft := &fakeTranscriber{err: errors.New("whisper down")}
	blobs := &fakeBlobStore{}
	svc := NewService(ft, blobs, zap.NewNop().Sugar())

	_, err := svc.Transcribe(context.Background(), "u1", wavBytes(64), "a.wav")
	require.Error(t, err)
	assert.Empty(t, blobs.keys)
}

func TestTranscribeArchivesUnderOwnerKey(t *testing.T) {
	ft := &fakeTranscriber{transcript: &speech.Transcript{Text: "buy milk", Language: "en", Confidence: 0.95}}
	blobs := &fakeBlobStore{}
	svc := NewService(ft, blobs, zap.NewNop().Sugar())

	res, err := svc.Transcribe(context.Background(), "u1", wavBytes(64), "a.wav")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", res.Transcript.Text)
	require.Len(t, blobs.keys, 1)
	assert.True(t, strings.HasPrefix(blobs.keys[0], "u1/"))
	assert.True(t, strings.HasSuffix(blobs.keys[0], ".wav"))
	assert.Equal(t, "https://blobs.example.com/"+blobs.keys[0], res.StorageURL)
}

func TestTranscribeArchivalFailureOnlyDropsReference(t *testing.T) {
	ft := &fakeTranscriber{transcript: &speech.Transcript{Text: "buy milk"}}
	svc := NewService(ft, &fakeBlobStore{fail: true}, zap.NewNop().Sugar())

	res, err := svc.Transcribe(context.Background(), "u1", wavBytes(64), "a.wav")
	require.NoError(t, err)
	assert.Empty(t, res.StorageURL)
	// missing language defaults to english
	assert.Equal(t, "en", res.Transcript.Language)
}

func TestExtractIdeas(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       []string
	}{
		{
			"splits on terminators and drops short fragments",
			"Build a plant waterer. Yes! What about a solar charger for bikes?",
			[]string{"Build a plant waterer", "What about a solar charger for bikes"},
		},
		{
			"trims surrounding whitespace",
			"  remember to call the supplier tomorrow.  ",
			[]string{"remember to call the supplier tomorrow"},
		},
		{
			"nothing long enough",
			"ok. yes! fine?",
			[]string{},
		},
		{
			"empty transcript",
			"",
			[]string{},
		},
		{
			// length is measured in runes, not bytes
			"short multibyte fragment dropped",
			"五文字です。明日の朝までに試作品を仕上げる!",
			[]string{"明日の朝までに試作品を仕上げる"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractIdeas(tc.transcript))
		})
	}
}

func TestExtractIdeasCapsAtTen(t *testing.T) {
	var sb strings.Builder
	for k := 0; k < 15; k++ {
		sb.WriteString("this is a long enough sentence. ")
	}
	got := ExtractIdeas(sb.String())
	assert.Len(t, got, 10)
}
