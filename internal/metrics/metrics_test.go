package metrics

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FacecamPublishes.WithLabelValues("kitchen").Inc()
	m.FacecamJitter.WithLabelValues("kitchen", "added").Inc()
	m.FacecamVisible.WithLabelValues("kitchen").Set(2)
	m.ResolverBatches.WithLabelValues("resolved").Inc()
	m.ResolverFaces.Add(3)
	m.AggregatorPublished.Inc()
	m.AggregatorDropped.WithLabelValues("malformed").Inc()
	m.AggregatorExcluded.WithLabelValues("missing").Inc()

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	expected := `
# HELP moodhome_resolver_faces_total Faces resolved to a name and mood.
# TYPE moodhome_resolver_faces_total counter
moodhome_resolver_faces_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "moodhome_resolver_faces_total"))
}

func TestNewPanicsOnDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestServeDisabledWithoutAddr(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NoError(t, Serve(context.Background(), "", NewRegistry(), logger))
}
