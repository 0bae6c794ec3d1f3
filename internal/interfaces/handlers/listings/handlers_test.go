package listings

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	listsvc "petadopt-backend/internal/application/listings"
	"petadopt-backend/internal/application/uploads"
	"petadopt-backend/internal/domain"
	"petadopt-backend/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var pngB64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8DwHwAFBQIAX8jx0gAAAABJRU5ErkJggg=="

func setup(t *testing.T) (*fiber.App, *gorm.DB, *testutil.FakeUploader) {
	db := testutil.NewDB(t)
	up := &testutil.FakeUploader{}
	svc := &listsvc.Service{DB: db}
	h := &Handlers{Service: svc, Submitter: &listsvc.Submitter{Service: svc, Uploader: up}}

	app := fiber.New()
	app.Get("/pets", h.Explore)
	app.Get("/pets/home", h.Home)
	app.Get("/pets/feed", h.Feed)
	app.Get("/pets/:id", h.Get)
	app.Post("/pets", h.Create)
	return app, db, up
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	b, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &out), string(b))
	return out
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, map[string]interface{}) {
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func TestExplore_FiltersAndCount(t *testing.T) {
	app, db, _ := setup(t)
	base := time.Now().Add(-time.Hour)
	testutil.SeedListing(t, db, domain.Listing{Name: "Rex", Species: "dog", Breed: testutil.Ptr("Labrador"), CreatedAt: base})
	testutil.SeedListing(t, db, domain.Listing{Name: "Milo", Species: "cat", CreatedAt: base.Add(time.Minute)})

	resp, out := get(t, app, "/pets?species=Dog&breed=lab")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Rex", data[0].(map[string]interface{})["name"])
	assert.Equal(t, float64(1), out["metadata"].(map[string]interface{})["count"])

	_, out = get(t, app, "/pets?species=All")
	assert.Len(t, out["data"], 2)
}

func TestExplore_BadParams(t *testing.T) {
	app, _, _ := setup(t)
	resp, _ := get(t, app, "/pets?sort=oldest")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = get(t, app, "/pets?limit=-1")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExplore_BackendErrorIsEmptyOK(t *testing.T) {
	app, db, _ := setup(t)
	require.NoError(t, db.Migrator().DropTable(&domain.Listing{}))
	resp, out := get(t, app, "/pets")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{}, out["data"])
}

func TestHome_NewestTwenty(t *testing.T) {
	app, db, _ := setup(t)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		testutil.SeedListing(t, db, domain.Listing{Name: fmt.Sprintf("p%02d", i), Species: "dog", CreatedAt: base.Add(time.Duration(i) * time.Second)})
	}
	resp, out := get(t, app, "/pets/home")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].([]interface{})
	require.Len(t, data, listsvc.HomeLimit)
	assert.Equal(t, "p24", data[0].(map[string]interface{})["name"])
}

func TestFeed_Sections(t *testing.T) {
	app, db, _ := setup(t)
	testutil.SeedListing(t, db, domain.Listing{Name: "Milo", Species: "cat", SpecialNeeds: true})
	resp, out := get(t, app, "/pets/feed")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	data := out["data"].(map[string]interface{})
	assert.Len(t, data["urgent"], 1)
	assert.Len(t, data["trending"], 1)
	assert.Len(t, data["new_arrivals"], 1)
}

func TestGet(t *testing.T) {
	app, db, _ := setup(t)
	l := testutil.SeedListing(t, db, domain.Listing{Name: "Rex", Species: "dog"})

	resp, out := get(t, app, fmt.Sprintf("/pets/%d", l.ID))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Rex", out["data"].(map[string]interface{})["name"])
	assert.NotContains(t, out["data"], "image_public_id")

	resp, _ = get(t, app, "/pets/999")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = get(t, app, "/pets/abc")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func postForm(t *testing.T, app *fiber.App, form url.Values) (*http.Response, map[string]interface{}) {
	req := httptest.NewRequest("POST", "/pets", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func TestCreate_MissingFields(t *testing.T) {
	app, _, up := setup(t)
	resp, out := postForm(t, app, url.Values{"name": {"Rex"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	errBody := out["error"].(map[string]interface{})
	assert.Equal(t, "Please fill out all required fields.", errBody["message"])
	details := errBody["details"].(map[string]interface{})
	assert.Equal(t, []interface{}{"species", "location", "image"}, details["missing"])
	assert.Equal(t, 0, up.UploadCount())
}

func TestCreate_Base64(t *testing.T) {
	app, db, up := setup(t)
	resp, out := postForm(t, app, url.Values{
		"name":         {"Rex"},
		"species":      {"Dog"},
		"location":     {"Springfield"},
		"age":          {"2"},
		"vaccinated":   {"true"},
		"adoption_fee": {"25.5"},
		"image_base64": {pngB64},
		"image_mime":   {"image/png"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, out)
	assert.Equal(t, "Pet listed successfully!", out["message"])
	assert.Equal(t, 1, up.UploadCount())

	var l domain.Listing
	require.NoError(t, db.First(&l).Error)
	assert.Equal(t, "dog", l.Species)
	assert.True(t, l.Vaccinated)
	assert.Equal(t, 25.5, l.AdoptionFee)
	require.NotNil(t, l.Age)
	assert.Equal(t, 2, *l.Age)
}

func TestCreate_Multipart(t *testing.T) {
	app, db, _ := setup(t)
	png, _ := base64.StdEncoding.DecodeString(pngB64)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range map[string]string{"name": "Milo", "species": "cat", "location": "Shelbyville"} {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("image", "milo.png")
	require.NoError(t, err)
	fw.Write(png)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/pets", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var count int64
	db.Model(&domain.Listing{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreate_UploadFails502(t *testing.T) {
	app, db, up := setup(t)
	up.UploadErr = uploads.ErrNoSecureURL
	resp, out := postForm(t, app, url.Values{
		"name": {"Rex"}, "species": {"dog"}, "location": {"x"}, "image_base64": {pngB64},
	})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to upload image.", out["error"].(map[string]interface{})["message"])

	var count int64
	db.Model(&domain.Listing{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreate_InsertFails500AndCompensates(t *testing.T) {
	app, db, up := setup(t)
	require.NoError(t, db.Migrator().DropTable(&domain.PetEvent{}))
	resp, _ := postForm(t, app, url.Values{
		"name": {"Rex"}, "species": {"dog"}, "location": {"x"}, "image_base64": {pngB64},
	})
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, []string{"pets/1"}, up.Destroyed)
}

func TestCreate_BadFee(t *testing.T) {
	app, _, _ := setup(t)
	resp, _ := postForm(t, app, url.Values{"adoption_fee": {"free"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
