package log_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nodesync/nodesync/libs/log"
)

func TestNewDefaultLogger(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format": {
			format:    "foo",
			level:     log.LogLevelInfo,
			expectErr: true,
		},
		"invalid level": {
			format:    log.LogFormatJSON,
			level:     "foo",
			expectErr: true,
		},
		"valid format and level": {
			format:    log.LogFormatJSON,
			level:     log.LogLevelInfo,
			expectErr: false,
		},
		"text alias": {
			format:    log.LogFormatText,
			level:     log.LogLevelDebug,
			expectErr: false,
		},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			_, err := log.NewDefaultLogger(tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoggerWithFields(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := log.NewLogger(buf, log.LogFormatJSON, log.LogLevelInfo)
	require.NoError(t, err)

	logger.With("module", "blocksync").Info("peer connected", "peer", "abc", "height", 7)
	logger.Debug("filtered out")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "peer connected", entry["message"])
	require.Equal(t, "blocksync", entry["module"])
	require.Equal(t, "abc", entry["peer"])
	require.EqualValues(t, 7, entry["height"])
	require.Equal(t, "info", entry["level"])
}

func TestOverrideWithNewLogger(t *testing.T) {
	logger := log.NewNopLogger()
	require.NoError(t, log.OverrideWithNewLogger(logger, log.LogFormatJSON, log.LogLevelError))
	require.Error(t, log.OverrideWithNewLogger(logger, "xml", log.LogLevelError))
}
