package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/okian/nameswap/internal/adapters/http/api"
	service "github.com/okian/nameswap/internal/app"
	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/universe"
	"github.com/okian/nameswap/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var catalogue = []universe.Entry{
	{Label: "Ábel", Category: model.CategoryBoy},
	{Label: "Botond", Category: model.CategoryBoy},
	{Label: "Csongor", Category: model.CategoryBoy},
	{Label: "Anna", Category: model.CategoryGirl},
	{Label: "Borbála", Category: model.CategoryGirl},
}

const (
	abel    = "boy-Ábel"
	botond  = "boy-Botond"
	csongor = "boy-Csongor"
)

type harness struct {
	svc *service.Service
	mux *http.ServeMux
}

func newHarness() *harness {
	svc := service.New(
		service.WithCatalogue(catalogue),
		service.WithLogger(logger.Discard()),
	)
	So(svc.Start(context.Background()), ShouldBeNil)

	mux := http.NewServeMux()
	api.NewServer(svc, 3).Register(context.Background(), mux)
	return &harness{svc: svc, mux: mux}
}

func (h *harness) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	So(h.svc.Stop(ctx), ShouldBeNil)
}

func (h *harness) do(method, target, voter, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if voter != "" {
		req.Header.Set(api.VoterHeader, voter)
	}
	w := httptest.NewRecorder()
	h.mux.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type entryBody struct {
	Rank int        `json:"rank"`
	Item model.Item `json:"item"`
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running API", t, func() {
		h := newHarness()
		defer h.close()

		Convey("When scraping /healthz", func() {
			h.do(http.MethodGet, "/pair?category=boy", "", "")
			w := h.do(http.MethodGet, "/healthz", "", "")

			Convey("Then Prometheus metrics should be served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "nameswap_engine_http_requests_total")
			})
		})

		Convey("When reading /stats", func() {
			w := h.do(http.MethodGet, "/stats", "", "")

			Convey("Then service statistics should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				stats := decodeBody[map[string]any](w)
				So(stats["started"], ShouldEqual, true)
				So(stats["userId"], ShouldEqual, h.svc.UserID())
			})
		})

		Convey("When using the wrong method", func() {
			w := h.do(http.MethodDelete, "/stats", "", "")

			Convey("Then the mux should refuse it", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestPairAndVotes(t *testing.T) {
	Convey("Given a running API", t, func() {
		h := newHarness()
		defer h.close()

		Convey("When asking for a pair", func() {
			w := h.do(http.MethodGet, "/pair?category=boys", "", "")

			Convey("Then two distinct boys should be offered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody[struct {
					Category string     `json:"category"`
					First    model.Item `json:"first"`
					Second   model.Item `json:"second"`
				}](w)
				So(body.Category, ShouldEqual, "boy")
				So(body.First.ID, ShouldNotEqual, body.Second.ID)
				So(body.First.Category, ShouldEqual, model.CategoryBoy)
			})
		})

		Convey("When the category is unknown", func() {
			w := h.do(http.MethodGet, "/pair?category=cats", "", "")

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a vote is posted", func() {
			w := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","second_id":"boy-Botond","outcome":"first_wins"}`)

			Convey("Then it should be recorded and move the board", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				v := decodeBody[model.Vote](w)
				So(v.VoterID, ShouldEqual, "alice")
				So(v.Outcome, ShouldEqual, model.FirstWins)

				rank := h.do(http.MethodGet, "/rank/"+url.PathEscape(abel), "", "")
				So(rank.Code, ShouldEqual, http.StatusOK)
				e := decodeBody[entryBody](rank)
				So(e.Rank, ShouldEqual, 1)
				So(e.Item.Rating, ShouldAlmostEqual, 1216, 1e-9)
			})
		})

		Convey("When a submission is sent twice", func() {
			body := `{"submission_id":"s-1","first_id":"boy-Ábel","second_id":"boy-Botond","outcome":"tie"}`
			first := h.do(http.MethodPost, "/votes", "alice", body)
			second := h.do(http.MethodPost, "/votes", "alice", body)

			Convey("Then the retry should be acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decodeBody[map[string]any](second)["duplicate"], ShouldEqual, true)
				So(h.svc.Votes(), ShouldHaveLength, 1)
			})
		})

		Convey("When votes are malformed", func() {
			missing := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","outcome":"tie"}`)
			outcome := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","second_id":"boy-Botond","outcome":"maybe"}`)
			unknownField := h.do(http.MethodPost, "/votes", "alice", `{"first":"x"}`)
			mixed := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","second_id":"girl-Anna","outcome":"tie"}`)
			unknown := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","second_id":"boy-Nobody","outcome":"tie"}`)
			same := h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Ábel","second_id":"boy-Ábel","outcome":"tie"}`)

			Convey("Then each should be rejected with a matching code", func() {
				So(missing.Code, ShouldEqual, http.StatusBadRequest)
				So(outcome.Code, ShouldEqual, http.StatusBadRequest)
				So(unknownField.Code, ShouldEqual, http.StatusBadRequest)
				So(mixed.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decodeBody[errorBody](mixed).Code, ShouldEqual, "category_mismatch")
				So(unknown.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(same.Code, ShouldEqual, http.StatusBadRequest)
				So(h.svc.Votes(), ShouldBeEmpty)
			})
		})
	})
}

func TestRankingsAndLeaderboard(t *testing.T) {
	Convey("Given votes from two voters", t, func() {
		h := newHarness()
		defer h.close()

		So(h.do(http.MethodPost, "/votes", "alice", `{"first_id":"boy-Csongor","second_id":"boy-Ábel","outcome":"first"}`).Code, ShouldEqual, http.StatusCreated)
		So(h.do(http.MethodPost, "/votes", "bob", `{"first_id":"boy-Botond","second_id":"boy-Ábel","outcome":"first"}`).Code, ShouldEqual, http.StatusCreated)

		Convey("When reading the global rankings", func() {
			w := h.do(http.MethodGet, "/rankings?category=boy", "", "")

			Convey("Then every vote should count", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody[struct {
					Scope    string      `json:"scope"`
					Fallback bool        `json:"fallback"`
					Entries  []entryBody `json:"entries"`
				}](w)
				So(body.Scope, ShouldEqual, "global")
				So(body.Fallback, ShouldBeFalse)
				So(body.Entries, ShouldHaveLength, 3)
				So(body.Entries[len(body.Entries)-1].Item.ID, ShouldEqual, abel)
			})
		})

		Convey("When alice reads her personal rankings", func() {
			w := h.do(http.MethodGet, "/rankings?category=boy&scope=personal", "alice", "")

			Convey("Then only her vote should be replayed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody[struct {
					Scope   string      `json:"scope"`
					Applied int         `json:"applied"`
					Entries []entryBody `json:"entries"`
				}](w)
				So(body.Scope, ShouldEqual, "user:alice")
				So(body.Applied, ShouldEqual, 1)
				So(body.Entries[0].Item.ID, ShouldEqual, csongor)
				So(body.Entries[1].Item.ID, ShouldEqual, botond)
				So(body.Entries[1].Item.Rating, ShouldEqual, 1200)
				So(body.Entries[1].Rank, ShouldEqual, 2)
			})
		})

		Convey("When someone without votes reads their rankings", func() {
			w := h.do(http.MethodGet, "/rankings?category=boy&scope=user&id=carol", "", "")

			Convey("Then the global board should be returned as a fallback", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody[map[string]any](w)["fallback"], ShouldEqual, true)
			})
		})

		Convey("When the scope is invalid", func() {
			bad := h.do(http.MethodGet, "/rankings?category=boy&scope=planet", "", "")
			noID := h.do(http.MethodGet, "/rankings?category=boy&scope=group", "", "")
			missing := h.do(http.MethodGet, "/rankings?category=boy&scope=group&id=nope", "", "")

			Convey("Then it should be rejected", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(noID.Code, ShouldEqual, http.StatusBadRequest)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When reading the leaderboard", func() {
			ok := h.do(http.MethodGet, "/leaderboard?category=boy&limit=2", "", "")
			defaultOverMax := h.do(http.MethodGet, "/leaderboard?category=girl", "", "")
			tooMany := h.do(http.MethodGet, "/leaderboard?category=boy&limit=4", "", "")
			invalid := h.do(http.MethodGet, "/leaderboard?category=boy&limit=zero", "", "")

			Convey("Then limits should be enforced", func() {
				So(ok.Code, ShouldEqual, http.StatusOK)
				entries := decodeBody[[]entryBody](ok)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Rank, ShouldEqual, 1)
				So(entries[0].Item.ID, ShouldEqual, csongor)
				So(entries[1].Rank, ShouldEqual, 2)
				So(entries[1].Item.ID, ShouldEqual, botond)
				So(defaultOverMax.Code, ShouldEqual, http.StatusBadRequest)
				So(tooMany.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody[errorBody](tooMany).Code, ShouldEqual, "limit_exceeded")
				So(invalid.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When asking for the rank of an unknown item", func() {
			w := h.do(http.MethodGet, "/rank/boy-Nobody", "", "")

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestGroups(t *testing.T) {
	Convey("Given a group created by U1", t, func() {
		h := newHarness()
		defer h.close()

		w := h.do(http.MethodPost, "/groups", "U1", `{"name":"Family"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		g := decodeBody[model.Group](w)
		So(g.OwnerID, ShouldEqual, "U1")

		Convey("When U2 joins", func() {
			w := h.do(http.MethodPost, "/groups/"+g.ID+"/join", "U2", "")

			Convey("Then both should be members", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody[model.Group](w).MemberIDs, ShouldResemble, []string{"U1", "U2"})

				again := h.do(http.MethodPost, "/groups/"+g.ID+"/join", "U2", "")
				So(again.Code, ShouldEqual, http.StatusConflict)

				mine := h.do(http.MethodGet, "/groups", "U2", "")
				So(decodeBody[[]model.Group](mine), ShouldHaveLength, 1)
			})

			Convey("And U2 tries to kick U1", func() {
				w := h.do(http.MethodPost, "/groups/"+g.ID+"/kick", "U2", `{"member_id":"U1"}`)

				Convey("Then it should be forbidden", func() {
					So(w.Code, ShouldEqual, http.StatusForbidden)
					So(decodeBody[errorBody](w).Code, ShouldEqual, "not_authorized")
				})
			})

			Convey("And U1 kicks U2", func() {
				w := h.do(http.MethodPost, "/groups/"+g.ID+"/kick", "U1", `{"member_id":"U2"}`)

				Convey("Then U2 should be gone", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(decodeBody[model.Group](w).MemberIDs, ShouldResemble, []string{"U1"})
				})
			})

			Convey("And U2 votes in the group", func() {
				w := h.do(http.MethodPost, "/votes", "U2", `{"first_id":"boy-Botond","second_id":"boy-Ábel","outcome":"first","group_id":"`+g.ID+`"}`)
				So(w.Code, ShouldEqual, http.StatusCreated)

				Convey("Then the group ranking should reflect it", func() {
					r := h.do(http.MethodGet, "/rankings?category=boy&scope=group&id="+g.ID, "", "")
					So(r.Code, ShouldEqual, http.StatusOK)
					body := decodeBody[struct {
						Entries []entryBody `json:"entries"`
					}](r)
					So(body.Entries[0].Item.ID, ShouldEqual, botond)
				})
			})
		})

		Convey("When an outsider votes in the group", func() {
			w := h.do(http.MethodPost, "/votes", "U9", `{"first_id":"boy-Botond","second_id":"boy-Ábel","outcome":"first","group_id":"`+g.ID+`"}`)

			Convey("Then it should be forbidden", func() {
				So(w.Code, ShouldEqual, http.StatusForbidden)
				So(decodeBody[errorBody](w).Code, ShouldEqual, "not_member")
			})
		})

		Convey("When the group does not exist", func() {
			get := h.do(http.MethodGet, "/groups/nope", "", "")
			join := h.do(http.MethodPost, "/groups/nope/join", "U2", "")

			Convey("Then it should be not found", func() {
				So(get.Code, ShouldEqual, http.StatusNotFound)
				So(join.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the group name is blank", func() {
			w := h.do(http.MethodPost, "/groups", "U1", `{"name":"  "}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestCurrentGroup(t *testing.T) {
	Convey("Given a group owned by the installation user", t, func() {
		h := newHarness()
		defer h.close()

		w := h.do(http.MethodPost, "/groups", "", `{"name":"Home"}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		g := decodeBody[model.Group](w)

		Convey("When it is selected", func() {
			w := h.do(http.MethodPut, "/current-group", "", `{"group_id":"`+g.ID+`"}`)

			Convey("Then it should be reported and receive the user's votes", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody[map[string]string](w)
				So(body["group_id"], ShouldEqual, g.ID)
				So(body["user_id"], ShouldEqual, h.svc.UserID())

				vote := h.do(http.MethodPost, "/votes", "", `{"first_id":"boy-Ábel","second_id":"boy-Botond","outcome":"first"}`)
				So(vote.Code, ShouldEqual, http.StatusCreated)
				So(decodeBody[model.Vote](vote).ScopeID, ShouldEqual, g.ID)

				get := h.do(http.MethodGet, "/current-group", "", "")
				So(decodeBody[map[string]string](get)["group_id"], ShouldEqual, g.ID)
			})
		})

		Convey("When selecting a group that does not exist", func() {
			w := h.do(http.MethodPut, "/current-group", "", `{"group_id":"nope"}`)

			Convey("Then it should be not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestErrorWrapping(t *testing.T) {
	Convey("Given an operation error", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.test", api.ErrBadRequest, cause)

		Convey("Then both the kind and the cause should match", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.test: bad request: boom")
			So(api.Wrap("api.test", nil), ShouldBeNil)
			So(api.NewKind("api.test", api.ErrNotFound).Error(), ShouldEqual, "api.test: not found")
		})
	})
}

func TestNotStarted(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(service.WithCatalogue(catalogue), service.WithLogger(logger.Discard()))
		mux := http.NewServeMux()
		api.NewServer(svc, 10).Register(context.Background(), mux)

		Convey("When a pair is requested", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/pair?category=girl", http.NoBody))

			Convey("Then the API should report itself unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeBody[errorBody](w).Code, ShouldEqual, "unavailable")
			})
		})
	})
}
