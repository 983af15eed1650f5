package replay_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/rating"
	"github.com/okian/nameswap/internal/domain/replay"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func items(ids ...string) []model.Item {
	out := make([]model.Item, len(ids))
	for i, id := range ids {
		out[i] = model.Item{ID: id, Label: id, Category: model.CategoryBoy, Rating: rating.DefaultBaseline}
	}
	return out
}

func vote(sec int, a, b string, o model.Outcome) model.Vote {
	return model.Vote{
		VoterID:   "u1",
		Timestamp: t0.Add(time.Duration(sec) * time.Second),
		ItemID1:   a,
		ItemID2:   b,
		Outcome:   o,
	}
}

func randomVotes(rng *rand.Rand, ids []string, n int) []model.Vote {
	votes := make([]model.Vote, n)
	for i := range votes {
		a := rng.IntN(len(ids))
		b := (a + 1 + rng.IntN(len(ids)-1)) % len(ids)
		votes[i] = vote(rng.IntN(50), ids[a], ids[b], model.Outcome(rng.IntN(3)))
	}
	return votes
}

func TestReplay(t *testing.T) {
	Convey("Given a universe of two items", t, func() {
		universe := items("A", "B")

		Convey("When no votes are replayed", func() {
			got := replay.Replay(universe, nil, rating.DefaultBaseline)

			Convey("Then every item should sit at the baseline", func() {
				So(got, ShouldResemble, map[string]float64{"A": 1200, "B": 1200})
			})
		})

		Convey("When A wins once", func() {
			got := replay.Replay(universe, []model.Vote{vote(0, "A", "B", model.FirstWins)}, rating.DefaultBaseline)

			Convey("Then A should be near 1216 and B near 1184", func() {
				So(got["A"], ShouldAlmostEqual, 1216, 1e-9)
				So(got["B"], ShouldAlmostEqual, 1184, 1e-9)
			})
		})

		Convey("When a custom baseline is supplied", func() {
			got := replay.Replay(universe, []model.Vote{vote(0, "A", "B", model.Tie)}, 1500)

			Convey("Then the tie should leave both at that baseline", func() {
				So(got["A"], ShouldAlmostEqual, 1500, 1e-9)
				So(got["B"], ShouldAlmostEqual, 1500, 1e-9)
			})
		})
	})

	Convey("Given votes referencing items outside the universe", t, func() {
		universe := items("A", "B")
		votes := []model.Vote{
			vote(0, "A", "Z", model.FirstWins),
			vote(1, "A", "B", model.SecondWins),
			vote(2, "Y", "B", model.FirstWins),
		}

		res := replay.Run(universe, votes, rating.DefaultBaseline)

		Convey("Then they should be skipped without error", func() {
			So(res.Applied, ShouldEqual, 1)
			So(res.Skipped, ShouldEqual, 2)
			So(res.Ratings, ShouldNotContainKey, "Z")
			So(res.Ratings["B"], ShouldAlmostEqual, 1216, 1e-9)
		})
	})

	Convey("Given votes delivered out of chronological order", t, func() {
		universe := items("A", "B", "C")
		ordered := []model.Vote{
			vote(1, "A", "B", model.FirstWins),
			vote(2, "B", "C", model.FirstWins),
			vote(3, "C", "A", model.Tie),
		}
		shuffled := []model.Vote{ordered[2], ordered[0], ordered[1]}

		Convey("Then replay should sort them by timestamp first", func() {
			want := replay.Replay(universe, ordered, rating.DefaultBaseline)
			got := replay.Replay(universe, shuffled, rating.DefaultBaseline)
			for id, r := range want {
				So(got[id], ShouldAlmostEqual, r, 1e-9)
			}
		})

		Convey("And the input slice should not be reordered", func() {
			_ = replay.Replay(universe, shuffled, rating.DefaultBaseline)
			So(shuffled[0].ItemID1, ShouldEqual, "C")
		})
	})

	Convey("Given votes sharing one timestamp", t, func() {
		universe := items("A", "B")
		votes := []model.Vote{
			vote(5, "A", "B", model.FirstWins),
			vote(5, "A", "B", model.SecondWins),
		}

		Convey("Then they should be applied in log order", func() {
			a, b := rating.Rate(1200, 1200, model.FirstWins)
			a, b = rating.Rate(a, b, model.SecondWins)

			got := replay.Replay(universe, votes, rating.DefaultBaseline)
			So(got["A"], ShouldEqual, a)
			So(got["B"], ShouldEqual, b)
		})
	})
}

func TestReplayDeterminism(t *testing.T) {
	Convey("Given a long random vote sequence", t, func() {
		ids := []string{"A", "B", "C", "D", "E", "F", "G"}
		universe := items(ids...)
		votes := randomVotes(rand.New(rand.NewPCG(7, 0)), ids, 500)

		Convey("When it is replayed twice", func() {
			first := replay.Run(universe, votes, rating.DefaultBaseline)
			second := replay.Run(universe, votes, rating.DefaultBaseline)

			Convey("Then both rating maps should be identical", func() {
				So(second.Applied, ShouldEqual, first.Applied)
				for id, r := range first.Ratings {
					So(second.Ratings[id], ShouldAlmostEqual, r, 1e-9)
				}
			})

			Convey("And the ratings should sum to the baseline total", func() {
				var sum float64
				for _, r := range first.Ratings {
					sum += r
				}
				So(sum, ShouldAlmostEqual, float64(len(ids))*rating.DefaultBaseline, 1e-6)
			})
		})

		Convey("When it matches a step-by-step incremental application", func() {
			live := map[string]float64{}
			for _, id := range ids {
				live[id] = rating.DefaultBaseline
			}
			for _, v := range replay.Chronological(votes) {
				live[v.ItemID1], live[v.ItemID2] = rating.Rate(live[v.ItemID1], live[v.ItemID2], v.Outcome)
			}

			got := replay.Replay(universe, votes, rating.DefaultBaseline)
			for id, r := range live {
				So(got[id], ShouldAlmostEqual, r, 1e-9)
			}
		})
	})
}

func TestSortByRating(t *testing.T) {
	Convey("Given items with some equal ratings", t, func() {
		list := []model.Item{
			{ID: "a", Rating: 1200},
			{ID: "b", Rating: 1300},
			{ID: "c", Rating: 1200},
			{ID: "d", Rating: 1100},
			{ID: "e", Rating: 1200},
		}

		replay.SortByRating(list)

		Convey("Then ratings should descend and ties keep input order", func() {
			got := make([]string, len(list))
			for i, it := range list {
				got[i] = it.ID
			}
			So(got, ShouldResemble, []string{"b", "a", "c", "e", "d"})
		})
	})

	Convey("Given replayed ratings applied to a universe", t, func() {
		universe := items("A", "B")
		out := replay.Apply(universe, map[string]float64{"A": 1300})

		Convey("Then the universe itself should be untouched", func() {
			So(universe[0].Rating, ShouldEqual, rating.DefaultBaseline)
			So(out[0].Rating, ShouldEqual, 1300)
			So(out[1].Rating, ShouldEqual, rating.DefaultBaseline)
		})
	})
}
