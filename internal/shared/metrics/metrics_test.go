package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetchSuccess()
	c.RecordFetchSuccess()
	c.RecordFetchFailure("status")
	c.RecordNewItems("creative", 3)
	c.RecordPostPublished("twitter")
	c.RecordPostFailed("telegram")
	c.RecordSnapshotWrite("battleRoyale")
	c.RecordImageFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.fetchSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetchFail.WithLabelValues("status")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.newItems.WithLabelValues("creative")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.postsPublished.WithLabelValues("twitter")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.postsFailed.WithLabelValues("telegram")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.snapshotWrites.WithLabelValues("battleRoyale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.imageFail))
}

func TestHandler_ExposesCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordNewItems("creative", 1)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `newsbridge_new_items_total{mode="creative"} 1`)
}
