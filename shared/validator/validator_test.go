package validator_test

import (
	"braidbook/shared/failure"
	"braidbook/shared/validator"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intake struct {
	SlotID      string `json:"slotId"      validate:"required,max=12"`
	ClientEmail string `json:"clientEmail" validate:"omitempty,email"`
	StartTime   string `json:"startTime"   validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Status      string `json:"status"      validate:"omitempty,oneof=confirmed cancelled"`
}

func validIntake() intake {
	return intake{SlotID: "2026-03-14_09", ClientEmail: "ama@example.com", StartTime: "2026-03-14T09:00:00Z"}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*intake)
		wantMsg string
	}{
		{
			name:   "valid",
			mutate: func(*intake) {},
		},
		{
			name:    "missing slot uses the json name",
			mutate:  func(i *intake) { i.SlotID = "" },
			wantMsg: "slotId is required",
		},
		{
			name:    "slot too long",
			mutate:  func(i *intake) { i.SlotID = "2026-03-14_09_00" },
			wantMsg: "slotId must be at most 12",
		},
		{
			name:    "bad email",
			mutate:  func(i *intake) { i.ClientEmail = "ama" },
			wantMsg: "clientEmail must be a valid email address",
		},
		{
			name:    "start time without offset",
			mutate:  func(i *intake) { i.StartTime = "2026-03-14 09:00" },
			wantMsg: "startTime must be an RFC 3339 timestamp",
		},
		{
			name:    "unknown status",
			mutate:  func(i *intake) { i.Status = "pending_deposit" },
			wantMsg: "status must be one of confirmed cancelled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validIntake()
			tt.mutate(&req)

			err := validator.ValidateStruct(&req)

			if tt.wantMsg == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestValidateVar(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		tag     string
		wantErr bool
	}{
		{name: "date", value: "2026-03-14", tag: "required,dateonly"},
		{name: "date with slashes", value: "14/03/2026", tag: "dateonly", wantErr: true},
		{name: "impossible date", value: "2026-02-30", tag: "dateonly", wantErr: true},
		{name: "empty date", value: "", tag: "required,dateonly", wantErr: true},
		{name: "clock not a slot format", value: "9am", tag: "dailyslot", wantErr: true},
		{name: "clock out of range", value: "25:00", tag: "dailyslot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateVar(tt.value, tt.tag)

			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			assert.NoError(t, err)
		})
	}
}

type upload struct {
	Image *multipart.FileHeader `json:"file" validate:"required,mimetypes=image/png image/jpeg,maxfilesize=1"`
}

func fileOf(contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: "braids.png",
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
		Size:     size,
	}
}

func TestFileRules(t *testing.T) {
	tests := []struct {
		name    string
		file    *multipart.FileHeader
		wantMsg string
	}{
		{name: "png under the limit", file: fileOf("image/png", 512<<10)},
		{name: "wrong type", file: fileOf("image/gif", 10), wantMsg: "file must be one of image/png image/jpeg"},
		{name: "too large", file: fileOf("image/jpeg", 2<<20), wantMsg: "file must be at most 1 MB"},
		{name: "missing", file: nil, wantMsg: "file is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateStruct(&upload{Image: tt.file})

			if tt.wantMsg == "" {
				assert.NoError(t, err)

				return
			}

			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "known fields", body: `{"slotId":"2026-03-14_09","startTime":"2026-03-14T09:00:00Z"}`},
		{name: "unknown field", body: `{"slotId":"2026-03-14_09","deposit":0}`, wantErr: true},
		{name: "trailing document", body: `{"slotId":"a"}{"slotId":"b"}`, wantErr: true},
		{name: "array", body: `["2026-03-14_09"]`, wantErr: true},
		{name: "empty", body: ``, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req intake

			err := validator.Decode(strings.NewReader(tt.body), &req)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	var req intake

	err := validator.Validate(strings.NewReader(`{"slotId":"2026-03-14_09"}`), &req)

	assert.EqualError(t, err, "startTime is required")
	assert.Equal(t, "2026-03-14_09", req.SlotID)
}
