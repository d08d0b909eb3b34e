package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/singerliu226/AI-resipe/internal/types"
)

type fakeDataset struct {
	listing string
	raw     map[string]string // served by the raw endpoint
	api     map[string]string // served by the contents API
	apiHits atomic.Int32
	gotAuth atomic.Value
}

func (d *fakeDataset) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/contents/json_data":
			_, _ = w.Write([]byte(d.listing))
		case strings.HasPrefix(r.URL.Path, "/contents/json_data/"):
			d.apiHits.Add(1)
			d.gotAuth.Store(r.Header.Get("Authorization"))
			assert.Equal(t, "application/vnd.github.v3.raw", r.Header.Get("Accept"))
			body, ok := d.api[strings.TrimPrefix(r.URL.Path, "/contents/json_data/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		case strings.HasPrefix(r.URL.Path, "/raw/"):
			body, ok := d.raw[strings.TrimPrefix(r.URL.Path, "/raw/")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestNutritionGit(srv *httptest.Server) (*NutritionGit, *syncBuffer) {
	logger, buf := newTestLogger()
	s := NewNutritionGit(newTestClient(), logger)
	s.ListURL = srv.URL + "/contents/json_data"
	s.RawBase = srv.URL + "/raw/"
	return s, buf
}

const twoFragmentListing = `[
	{"name": "grains.json", "type": "file", "download_url": null},
	{"name": "broken.json", "type": "file"},
	{"name": "README.md", "type": "file"},
	{"name": "archive", "type": "dir"}
]`

func TestNutritionGit_NonArrayFragmentIsSkipped(t *testing.T) {
	d := &fakeDataset{
		listing: twoFragmentListing,
		raw: map[string]string{
			"grains.json": `[
				{"foodCode": "011101", "foodName": "小麦", "energyKCal": 338, "protein": "11.9", "fat": "1.3", "CHO": "75.2", "dietaryFiber": "10.8", "Ca": "34", "Na": "6.8"},
				{"foodCode": "011201", "foodName": "五谷香", "energyKCal": "378", "protein": "9.9", "fat": "2.6", "CHO": "78.9", "dietaryFiber": "Tr", "Na": "—"},
				{"foodCode": "011202", "foodName": "小麦粉", "energyKCal": null}
			]`,
			"broken.json": `{}`,
		},
	}
	s, logs := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Records, 3)
	assert.Equal(t, 0, batch.Failed)
	assert.Contains(t, logs.String(), "fragment is not an array")
	assert.Contains(t, logs.String(), "broken.json")

	want := []types.NutritionRecord{
		{ID: "011101", Name: "小麦", EnergyKcal: ptr(338), ProteinG: ptr(11.9), FatG: ptr(1.3), CarbG: ptr(75.2), FiberG: ptr(10.8), CalciumMg: ptr(34), SodiumMg: ptr(6.8)},
		{ID: "011201", Name: "五谷香", EnergyKcal: ptr(378), ProteinG: ptr(9.9), FatG: ptr(2.6), CarbG: ptr(78.9)},
		{ID: "011202", Name: "小麦粉"},
	}
	if diff := cmp.Diff(want, batch.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestNutritionGit_FallsBackToContentsAPI(t *testing.T) {
	d := &fakeDataset{
		listing: `[{"name": "veg.json", "type": "file"}]`,
		raw:     map[string]string{},
		api: map[string]string{
			"veg.json": `[{"foodCode": "045101", "foodName": "白菜", "energyKCal": "20"}]`,
		},
	}
	s, _ := newTestNutritionGit(d.server(t))
	s.Token = "secret"

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "白菜", batch.Records[0].Name)
	assert.Equal(t, int32(1), d.apiHits.Load())
	assert.Equal(t, "token secret", d.gotAuth.Load())
}

func TestNutritionGit_NonJSONRawFallsBackToContentsAPI(t *testing.T) {
	d := &fakeDataset{
		listing: `[{"name": "salt.json", "type": "file"}]`,
		raw:     map[string]string{"salt.json": `<html><body>429 Too Many Requests</body></html>`},
		api: map[string]string{
			"salt.json": `[{"foodCode": "202101", "foodName": "精盐", "energyKCal": 0, "Ca": 2.2E1, "Na": 3.9311e4, "fat": 1.5e-05}]`,
		},
	}
	s, _ := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, int32(1), d.apiHits.Load())
	rec := batch.Records[0]
	assert.Equal(t, ptr(0), rec.EnergyKcal)
	assert.Equal(t, ptr(22), rec.CalciumMg)
	assert.Equal(t, ptr(39311), rec.SodiumMg)
	require.NotNil(t, rec.FatG)
	assert.InDelta(t, 1.5e-05, *rec.FatG, 1e-12)
}

func TestNutritionGit_NoTokenSendsNoAuthorization(t *testing.T) {
	d := &fakeDataset{
		listing: `[{"name": "veg.json", "type": "file"}]`,
		api:     map[string]string{"veg.json": `[]`},
	}
	s, _ := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
	assert.Equal(t, "", d.gotAuth.Load())
}

func TestNutritionGit_UnreachableFragmentCountsAsFailed(t *testing.T) {
	d := &fakeDataset{
		listing: `[{"name": "a.json", "type": "file"}, {"name": "b.json", "type": "file"}]`,
		raw: map[string]string{
			"a.json": `[{"foodCode": "1", "foodName": "甲"}]`,
		},
	}
	s, logs := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Records, 1)
	assert.Equal(t, 1, batch.Failed)
	assert.Contains(t, logs.String(), "key=b.json")
}

func TestNutritionGit_ItemsWithoutIdentityAreSkipped(t *testing.T) {
	d := &fakeDataset{
		listing: `[{"name": "a.json", "type": "file"}]`,
		raw: map[string]string{
			"a.json": `[
				{"foodCode": "1", "foodName": "甲"},
				{"foodName": "无编码"},
				{"foodCode": "3"},
				"not an object"
			]`,
		},
	}
	s, logs := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)
	require.Len(t, batch.Records, 1)
	assert.Equal(t, "1", batch.Records[0].ID)
	assert.Equal(t, 2, strings.Count(logs.String(), "without code or name"))
	assert.Contains(t, logs.String(), "malformed nutrition item")
}

func TestNutritionGit_EmptyDirectoryYieldsNothing(t *testing.T) {
	d := &fakeDataset{listing: `[]`}
	s, _ := newTestNutritionGit(d.server(t))

	batch, err := s.Crawl(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch.Records)
	assert.Equal(t, 0, batch.Failed)
}

func TestNutritionGit_BadListingIsSourceError(t *testing.T) {
	d := &fakeDataset{listing: `{"message": "API rate limit exceeded"}`}
	s, _ := newTestNutritionGit(d.server(t))

	_, err := s.Crawl(context.Background())
	require.Error(t, err)

	var srcErr *SourceError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "nutrition-git", srcErr.Source)
	assert.Contains(t, err.Error(), "unexpected listing response")
}
