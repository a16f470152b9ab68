package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/talentradar/internal/domain/model"
	types "github.com/okian/talentradar/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry", t, func() {
		entry := types.Entry{Rank: 1, CandidateID: "c-1", Name: "Jane", Score: 81.25, Tier: model.TierTop}

		Convey("When encoding it as JSON", func() {
			b, err := json.Marshal(entry)

			Convey("Then the tier is rendered by name", func() {
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual,
					`{"rank":1,"candidate_id":"c-1","name":"Jane","score":81.25,"priority_tier":"top"}`)
			})
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given Stats", t, func() {
		stats := types.Stats{
			TotalCandidates:  2,
			TierDistribution: map[string]int{"top": 1, "low": 1},
			AverageScore:     50.5,
			TopCompanies:     []types.CompanyCount{{Company: "Stripe", Count: 2}},
		}

		Convey("Then it encodes with snake_case keys", func() {
			b, err := json.Marshal(stats)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"tier_distribution":{"low":1,"top":1}`)
			So(string(b), ShouldContainSubstring, `"top_companies":[{"company":"Stripe","count":2}]`)
		})
	})
}
