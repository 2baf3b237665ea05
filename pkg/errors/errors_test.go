package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "http_status error (code 503): unexpected status code: 503", HTTPStatus(503).Error())
	assert.Equal(t, "config error: bad group id", Config("bad group id").Error())
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(ErrorTypeIO, fs.ErrPermission, "failed to write results")

	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.True(t, IsType(err, ErrorTypeIO))
	assert.False(t, IsFetchError(err))
}

func TestTypeOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("fetching page: %w", New(ErrorTypeDecode, "not json"))

	assert.Equal(t, ErrorTypeDecode, TypeOf(err))
	assert.True(t, IsFetchError(err))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.False(t, IsType(nil, ErrorTypeIO))
}

func TestIsFetchError(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeTimeout, true},
		{ErrorTypeHTTPStatus, true},
		{ErrorTypeDecode, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeIO, false},
		{ErrorTypeConfig, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsFetchError(New(tt.errType, "x")))
		})
	}
}
