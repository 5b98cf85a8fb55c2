package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateEntry(t *testing.T) {
	validTime := time.Now().Add(-1 * time.Hour)
	futureTime := time.Now().Add(1 * time.Hour)

	tests := []struct {
		name    string
		entry   *Entry
		wantErr error
	}{
		{
			name: "valid entry",
			entry: &Entry{
				Id:        1,
				Contents:  "Long walk by the river",
				Timestamp: validTime,
			},
			wantErr: nil,
		},
		{
			name: "valid entry with empty vector",
			entry: &Entry{
				Id:        1,
				Contents:  "Quiet day",
				Timestamp: validTime,
				Vector:    nil,
			},
			wantErr: nil,
		},
		{
			name: "valid entry with ID 0",
			entry: &Entry{
				Contents:  "Message",
				Timestamp: validTime,
			},
			wantErr: nil,
		},
		{
			name: "zero timestamp is allowed",
			entry: &Entry{
				Contents: "Message",
			},
			wantErr: nil,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantErr: ErrInvalidEntry,
		},
		{
			name: "empty contents",
			entry: &Entry{
				Contents:  "",
				Timestamp: validTime,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "whitespace contents",
			entry: &Entry{
				Contents:  " \n\t ",
				Timestamp: validTime,
			},
			wantErr: ErrEmptyContent,
		},
		{
			name: "blank tag",
			entry: &Entry{
				Contents:  "Hello",
				Tags:      []string{"work", " "},
				Timestamp: validTime,
			},
			wantErr: ErrEmptyTag,
		},
		{
			name: "future timestamp",
			entry: &Entry{
				Contents:  "Hello",
				Timestamp: futureTime,
			},
			wantErr: ErrInvalidTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEntry(tt.entry)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateEntry() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateEntry() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateEntry() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Errorf("ValidateEntry() error = %v, want wrapped %v", err, ErrInvalidEntry)
			}
		})
	}
}

func TestIsValidTimestamp(t *testing.T) {
	if !IsValidTimestamp(time.Time{}) {
		t.Error("zero timestamp should be valid")
	}
	if !IsValidTimestamp(time.Now().Add(-time.Minute)) {
		t.Error("past timestamp should be valid")
	}
	if IsValidTimestamp(time.Now().Add(time.Hour)) {
		t.Error("future timestamp should be invalid")
	}
}
