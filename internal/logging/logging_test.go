package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Config{Level: "info", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closeFn()

	log.WithField("listing_id", 3).Debug("hidden")
	log.WithField("listing_id", 4).Info("visible")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, float64(4), entry["listing_id"])
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bookchain.log")
	log, closeFn, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)

	log.Warn("scan failed")
	require.NoError(t, closeFn())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan failed")
}

func TestNew_Defaults(t *testing.T) {
	log, _, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, log.GetLevel())
}

func TestNew_Invalid(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"})
	assert.Error(t, err)
}
