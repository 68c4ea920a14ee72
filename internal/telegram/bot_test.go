package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestMediaRequest(t *testing.T) {
	chat := &tgbotapi.Chat{ID: 42}

	tests := []struct {
		name      string
		msg       *tgbotapi.Message
		wantOK    bool
		wantLabel string
		wantKind  string
		wantFile  string
	}{
		{
			name:      "voice note",
			msg:       &tgbotapi.Message{Chat: chat, Voice: &tgbotapi.Voice{FileID: "v1"}},
			wantOK:    true,
			wantLabel: "Voice Note",
			wantKind:  "voice",
			wantFile:  "v1",
		},
		{
			name:      "audio with file name",
			msg:       &tgbotapi.Message{Chat: chat, Audio: &tgbotapi.Audio{FileID: "a1", FileName: "lecture.mp3"}},
			wantOK:    true,
			wantLabel: "Audio (lecture.mp3)",
			wantKind:  "audio",
			wantFile:  "a1",
		},
		{
			name:      "audio without file name",
			msg:       &tgbotapi.Message{Chat: chat, Audio: &tgbotapi.Audio{FileID: "a2"}},
			wantOK:    true,
			wantLabel: "Audio (audio)",
			wantKind:  "audio",
			wantFile:  "a2",
		},
		{
			name:      "video note",
			msg:       &tgbotapi.Message{Chat: chat, VideoNote: &tgbotapi.VideoNote{FileID: "vn1"}},
			wantOK:    true,
			wantLabel: "Video Note",
			wantKind:  "video_note",
			wantFile:  "vn1",
		},
		{
			name:      "document",
			msg:       &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "d1", FileName: "notes.ogg"}},
			wantOK:    true,
			wantLabel: "Document (notes.ogg)",
			wantKind:  "document",
			wantFile:  "d1",
		},
		{
			name:      "document without file name",
			msg:       &tgbotapi.Message{Chat: chat, Document: &tgbotapi.Document{FileID: "d2"}},
			wantOK:    true,
			wantLabel: "Document (file)",
			wantKind:  "document",
			wantFile:  "d2",
		},
		{
			name:   "plain text ignored",
			msg:    &tgbotapi.Message{Chat: chat, Text: "hello"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, ok := mediaRequest(tt.msg)
			if ok != tt.wantOK {
				t.Fatalf("mediaRequest ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if req.ChatID != 42 {
				t.Errorf("ChatID = %d, want 42", req.ChatID)
			}
			if req.Label != tt.wantLabel {
				t.Errorf("Label = %q, want %q", req.Label, tt.wantLabel)
			}
			if req.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", req.Kind, tt.wantKind)
			}
			if req.FileID != tt.wantFile {
				t.Errorf("FileID = %q, want %q", req.FileID, tt.wantFile)
			}
		})
	}
}

func TestMediaRequest_VoiceTakesPrecedence(t *testing.T) {
	// Telegram messages carry at most one media payload, but the mapping
	// order is fixed regardless
	msg := &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 1},
		Voice:    &tgbotapi.Voice{FileID: "v"},
		Document: &tgbotapi.Document{FileID: "d"},
	}

	req, ok := mediaRequest(msg)
	if !ok || req.Kind != "voice" {
		t.Errorf("Expected voice mapping, got %+v", req)
	}
}
