package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"people_api/internal/model"
	"people_api/internal/service"
)

func TestPeopleList_PassesParsedRequest(t *testing.T) {
	var got service.PeopleRequest
	svc := &fakePeopleService{
		queryFn: func(ctx context.Context, req service.PeopleRequest) ([]model.PersonProfile, error) {
			got = req
			return []model.PersonProfile{{PostID: 10, Name: "Ada Lovelace", Directories: []model.DirectoryRef{}}}, nil
		},
	}
	r := newRouter(Handlers{People: NewPeopleHandler(svc)}, nil)

	w := doReq(r, http.MethodGet, testPrefix+"/people?directory=2&directory_inherit=children&count=All&tag=a,b", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expect 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if got.DirectoryID != 2 || got.DirectoryInherit != service.InheritChildren || got.PerPage != -1 {
		t.Fatalf("unexpected request: %+v", got)
	}
	if len(got.Taxonomies["tag"]) != 2 {
		t.Fatalf("unexpected taxonomies: %+v", got.Taxonomies)
	}

	var body []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not an array: %v", err)
	}
	if len(body) != 1 || body[0]["name"] != "Ada Lovelace" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestPeopleList_EmptyResultIsArray(t *testing.T) {
	r := newRouter(Handlers{}, nil)

	w := doReq(r, http.MethodGet, testPrefix+"/people", "")
	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("expect 200 [], got %d %s", w.Code, w.Body.String())
	}
}

func TestPeopleList_InvalidQuery(t *testing.T) {
	called := false
	svc := &fakePeopleService{
		queryFn: func(ctx context.Context, req service.PeopleRequest) ([]model.PersonProfile, error) {
			called = true
			return nil, nil
		},
	}
	r := newRouter(Handlers{People: NewPeopleHandler(svc)}, nil)

	for _, q := range []string{"count=abc", "directory=x", "directory_inherit=sideways", "page=two"} {
		w := doReq(r, http.MethodGet, testPrefix+"/people?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expect 400, got %d", q, w.Code)
		}
	}
	if called {
		t.Fatalf("service should not be called for invalid queries")
	}
}

func TestPeopleList_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmtInvalid("unknown taxonomy"), http.StatusBadRequest},
		{service.ErrDirectoryCycle, http.StatusInternalServerError},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &fakePeopleService{
			queryFn: func(ctx context.Context, req service.PeopleRequest) ([]model.PersonProfile, error) {
				return nil, tc.err
			},
		}
		r := newRouter(Handlers{People: NewPeopleHandler(svc)}, nil)

		w := doReq(r, http.MethodGet, testPrefix+"/people", "")
		if w.Code != tc.status {
			t.Fatalf("%v: expect %d, got %d", tc.err, tc.status, w.Code)
		}
		var resp map[string]interface{}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if int(resp["code"].(float64)) != tc.status {
			t.Fatalf("unexpected envelope: %s", w.Body.String())
		}
	}
}

func fmtInvalid(msg string) error {
	return fmt.Errorf("%w: %s", service.ErrInvalidInput, msg)
}
