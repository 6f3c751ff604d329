package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/session"
	"github.com/trezcool/classbook/core/user"
	"github.com/trezcool/classbook/core/viewer"
	appfs "github.com/trezcool/classbook/fs"
	"github.com/trezcool/classbook/services/logger"
	"github.com/trezcool/classbook/storage/database/inmem"
	"github.com/trezcool/classbook/storage/yamlfile"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

// fakeRenderer answers every document with three A4 pages, unless err is set.
type fakeRenderer struct {
	err error
}

var a4Pages = []viewer.PageSize{{Width: 595, Height: 842}, {Width: 595, Height: 842}, {Width: 595, Height: 842}}

func (r *fakeRenderer) Render(_ context.Context, doc viewer.Document, page int, zoom float64) (viewer.PageView, error) {
	if r.err != nil {
		return viewer.PageView{}, r.err
	}
	return viewer.NewPageView(doc, a4Pages, page, zoom)
}

func setup(t *testing.T) (*Server, *fakeRenderer) {
	conf := core.NewTestConfig()
	lgr := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	lgr.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	catalog.InitValidators(validate, translator)

	db, err := inmemdb.OpenDemo(nil)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrSvc := user.NewService(inmemdb.NewAccountRepository(db), validate, translator)
	sessSvc := session.NewService(inmemdb.NewSessionStore(db), usrSvc, conf.Server.SessionTTL)
	catSvc, err := catalog.NewService(
		context.Background(),
		yamlfile.NewFSRepository(appfs.FS, appfs.CatalogPath),
		validate,
		translator,
		lgr,
	)
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	renderer := new(fakeRenderer)
	return NewServer(conf, lgr, validate, translator, catSvc, usrSvc, sessSvc, renderer), renderer
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// login signs in the demo account of role and returns its token and session.
func login(t *testing.T, s *Server, role user.Role) (string, session.Session) {
	body := marchallObj(t, LoginRequest{Username: string(role), Password: user.DemoPasswords[role]})
	req, rec := newRequest(http.MethodPost, "/v1/auth/login", body)
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login() failed: code = %v; body %v", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	return resp.Token, *resp.Session
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, s *Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			s.ServeHTTP(rec, req)
			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code)
				assert.Empty(t, rec.Body.String())
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
