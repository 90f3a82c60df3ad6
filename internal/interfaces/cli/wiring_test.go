package cli

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dimpat/internal/config"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

func wiringConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Query.GridID = "grid.6268.a"
	cfg.Output.Dir = t.TempDir()
	cfg.Export.Sinks = []string{config.SinkLocalFS}
	cfg.Dimensions.APIKey = ""
	return cfg
}

func TestBuildResources_MissingAPIKey(t *testing.T) {
	cfg := wiringConfig(t)

	var (
		res *resources
		err error
	)
	require.NotPanics(t, func() {
		res, err = buildResources(context.Background(), cfg, logging.NewNopLogger())
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
	assert.Contains(t, err.Error(), "api_key")
}

func TestBuildResources_UnknownFormat(t *testing.T) {
	cfg := wiringConfig(t)
	cfg.Query.Input = "response.json"
	cfg.Output.Formats = []string{"dbf"}

	var err error
	require.NotPanics(t, func() {
		_, err = buildResources(context.Background(), cfg, logging.NewNopLogger())
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "localfs")
}

func TestBuildResources_ClosesRedisOnError(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := wiringConfig(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()

	_, err := buildResources(context.Background(), cfg, logging.NewNopLogger())
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		return mr.CurrentConnectionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestResources_CloseReverseOrder(t *testing.T) {
	var order []int
	res := &resources{}
	res.onClose(func() error { order = append(order, 1); return nil })
	res.onClose(func() error { order = append(order, 2); return stderrors.New("boom") })
	res.onClose(func() error { order = append(order, 3); return nil })

	err := res.Close()
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, res.Close())

	var nilRes *resources
	assert.NoError(t, nilRes.Close())
}

//Personal.AI order the ending
