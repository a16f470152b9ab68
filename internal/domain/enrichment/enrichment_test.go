package enrichment_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/scoring"
)

var fixedNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

type fakeCodeHost struct {
	mu       sync.Mutex
	profiles map[string]*enrichment.CodeHostProfile
	stats    map[string]*model.GitHubStats
	statsErr error
	calls    []string
}

func (f *fakeCodeHost) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCodeHost) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCodeHost) Profile(_ context.Context, handle string) (*enrichment.CodeHostProfile, error) {
	f.record("profile:" + handle)
	return f.profiles[handle], nil
}

func (f *fakeCodeHost) Stats(_ context.Context, handle string) (*model.GitHubStats, error) {
	f.record("stats:" + handle)
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats[handle], nil
}

type fakeSocial struct {
	profiles map[string]*enrichment.SocialFacts
	err      error
	block    chan struct{} // when set, Profile ignores ctx and waits on it
}

func (f *fakeSocial) Profile(_ context.Context, handle string) (*enrichment.SocialFacts, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.profiles[handle], nil
}

type fakeInsights struct {
	raw string
	err error
}

func (f fakeInsights) SuggestCareerInsights(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(f.raw), f.err
}

func fixtures() (*fakeCodeHost, *fakeSocial) {
	codeHost := &fakeCodeHost{
		profiles: map[string]*enrichment.CodeHostProfile{
			"janedoe": {
				Login:           "janedoe",
				Name:            "Jane Doe",
				Email:           "jane@example.com",
				Bio:             "ML engineer. linkedin.com/in/jane-doe",
				TwitterUsername: "jd_ml",
				URL:             "https://github.com/janedoe",
				Followers:       10,
				PublicRepos:     4,
			},
			"quiet": {Login: "quiet"},
		},
		stats: map[string]*model.GitHubStats{
			"janedoe": {Username: "janedoe", Followers: 1000, TotalStars: 2000, ContributionsLastYear: 600, PublicRepos: 80},
			"quiet":   {Username: "quiet"},
		},
	}
	social := &fakeSocial{profiles: map[string]*enrichment.SocialFacts{
		"jd_ml":  {Name: "Jane D", Username: "jd_ml", Bio: "Researcher", Followers: 300, Engagement: 12.5},
		"anchor": {Name: "", Username: "anchor", Bio: "I write code: github.com/janedoe", Followers: 50, Engagement: 4},
		"issues": {Name: "Issue Person", Username: "issues", Bio: "see github.com/issues for bugs"},
	}}
	return codeHost, social
}

func newEngine(codeHost enrichment.CodeHost, social enrichment.Social, opts ...enrichment.Option) *enrichment.Engine {
	clock := func() time.Time { return fixedNow }
	opts = append([]enrichment.Option{enrichment.WithClock(clock)}, opts...)
	return enrichment.New(codeHost, social, scoring.New(scoring.WithClock(clock)), opts...)
}

func TestEnrichFromSocialAnchor(t *testing.T) {
	Convey("Given an X anchor whose bio links a GitHub account", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformX, "@anchor")

		Convey("Then the GitHub source is attached from a fetch for janedoe", func() {
			So(err, ShouldBeNil)
			So(p.Sources, ShouldResemble, []model.Platform{model.PlatformX, model.PlatformGitHub})
			So(p.Candidate.GitHubProfile, ShouldNotBeNil)
			So(p.Candidate.GitHubProfile.Username, ShouldEqual, "janedoe")
			So(codeHost.Calls(), ShouldContain, "stats:janedoe")
		})

		Convey("Then the name falls back to the handle and the email comes from GitHub", func() {
			So(p.Candidate.Name, ShouldEqual, "anchor")
			So(p.Candidate.Email, ShouldEqual, "jane@example.com")
			So(p.Candidate.XProfile.URL, ShouldEqual, "https://x.com/anchor")
			So(p.Candidate.XProfile.EngagementScore, ShouldEqual, 4)
		})

		Convey("Then the profile is scored and stamped", func() {
			So(p.Candidate.Score.GitHub, ShouldEqual, 85)
			So(scoring.Consistent(p.Candidate), ShouldBeTrue)
			So(p.Candidate.DiscoveredFrom, ShouldEqual, model.PlatformX)
			So(p.Candidate.DiscoveredAt, ShouldEqual, fixedNow)
		})
	})

	Convey("Given an X anchor whose bio links a reserved GitHub path", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformX, "issues")

		Convey("Then no secondary source is added or fetched", func() {
			So(err, ShouldBeNil)
			So(p.Sources, ShouldResemble, []model.Platform{model.PlatformX})
			So(p.Candidate.GitHubProfile, ShouldBeNil)
			So(codeHost.Calls(), ShouldBeEmpty)
		})
	})
}

func TestEnrichFromCodeHostAnchor(t *testing.T) {
	Convey("Given a GitHub anchor naming an X account", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

		Convey("Then every source is recorded in order", func() {
			So(err, ShouldBeNil)
			So(p.Sources, ShouldResemble, []model.Platform{model.PlatformGitHub, model.PlatformX, model.PlatformLinkedIn})
			So(p.Candidate.Name, ShouldEqual, "Jane Doe")
			So(p.Candidate.Email, ShouldEqual, "jane@example.com")
			So(p.Candidate.XProfile.Username, ShouldEqual, "jd_ml")
			So(p.Candidate.LinkedInURL, ShouldEqual, "https://linkedin.com/in/jane-doe")
		})
	})

	Convey("Given a GitHub anchor whose stats call fails", t, func() {
		codeHost, social := fixtures()
		codeHost.statsErr = errors.New("rate limited")
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

		Convey("Then the profile counters stand in for the stats", func() {
			So(err, ShouldBeNil)
			So(p.Candidate.GitHubProfile.Followers, ShouldEqual, 10)
			So(p.Candidate.GitHubProfile.PublicRepos, ShouldEqual, 4)
			So(p.Candidate.GitHubProfile.URL, ShouldEqual, "https://github.com/janedoe")
		})
	})

	Convey("Given an unknown anchor", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "nobody")

		Convey("Then the result is empty without an error", func() {
			So(err, ShouldBeNil)
			So(p.Empty(), ShouldBeTrue)
			So(p.Candidate.Name, ShouldBeEmpty)
		})
	})

	Convey("Given a failing anchor fetch", t, func() {
		codeHost, social := fixtures()
		social.err = errors.New("boom")
		engine := newEngine(codeHost, social)

		p, err := engine.Enrich(context.Background(), model.PlatformX, "anchor")

		Convey("Then the result is empty without an error", func() {
			So(err, ShouldBeNil)
			So(p.Empty(), ShouldBeTrue)
		})
	})

	Convey("Given structurally absent anchors", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social)

		_, err := engine.Enrich(context.Background(), model.PlatformGitHub, "  @ ")
		So(errors.Is(err, enrichment.ErrEmptyAnchor), ShouldBeTrue)

		_, err = engine.Enrich(context.Background(), model.PlatformLinkedIn, "jane")
		So(errors.Is(err, enrichment.ErrUnsupportedPlatform), ShouldBeTrue)

		_, err = newEngine(codeHost, nil).Enrich(context.Background(), model.PlatformX, "jane")
		So(errors.Is(err, enrichment.ErrUnsupportedPlatform), ShouldBeTrue)
	})
}

func TestInsightMerge(t *testing.T) {
	Convey("Given an insight suggester", t, func() {
		codeHost, social := fixtures()

		Convey("When it returns well formed insights", func() {
			baseline, err := newEngine(codeHost, social).Enrich(context.Background(), model.PlatformGitHub, "janedoe")
			So(err, ShouldBeNil)

			engine := newEngine(codeHost, social, enrichment.WithInsights(fakeInsights{raw: `{
				"current_title": "Staff Engineer",
				"current_company": "Stripe",
				"previous_companies": ["Google", "OpenAI"],
				"education": "MIT"
			}`}))
			p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")
			So(err, ShouldBeNil)

			Convey("Then the current role is merged onto the candidate", func() {
				So(p.Candidate.CurrentTitle, ShouldEqual, "Staff Engineer")
				So(p.Candidate.CurrentCompany, ShouldEqual, "Stripe")
			})

			Convey("Then history and education stay on the insights only", func() {
				So(p.Insights.PreviousCompanies, ShouldResemble, []string{"Google", "OpenAI"})
				So(*p.Insights.Education, ShouldEqual, "MIT")
				So(p.Candidate.Experiences, ShouldResemble, baseline.Candidate.Experiences)
				So(p.Candidate.Education, ShouldResemble, baseline.Candidate.Education)
			})

			Convey("Then every sub-score and the tier are unchanged", func() {
				So(p.Candidate.Score, ShouldResemble, baseline.Candidate.Score)
				So(p.Candidate.Tier, ShouldEqual, baseline.Candidate.Tier)
			})
		})

		Convey("When it returns malformed output", func() {
			engine := newEngine(codeHost, social, enrichment.WithInsights(fakeInsights{raw: "Sure! Here you go: {"}))
			p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

			Convey("Then enrichment degrades to no insight", func() {
				So(err, ShouldBeNil)
				So(p.Insights.Empty(), ShouldBeTrue)
				So(p.Candidate.CurrentTitle, ShouldBeEmpty)
				So(p.Sources, ShouldContain, model.PlatformGitHub)
			})
		})

		Convey("When it returns wrongly typed fields", func() {
			engine := newEngine(codeHost, social, enrichment.WithInsights(fakeInsights{raw: `{"current_title": 7, "current_company": "Anthropic", "education": null}`}))
			p, _ := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

			Convey("Then only the valid fields are merged", func() {
				So(p.Candidate.CurrentTitle, ShouldBeEmpty)
				So(p.Candidate.CurrentCompany, ShouldEqual, "Anthropic")
				So(p.Candidate.Education, ShouldBeEmpty)
			})
		})

		Convey("When it fails", func() {
			engine := newEngine(codeHost, social, enrichment.WithInsights(fakeInsights{err: errors.New("quota")}))
			p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

			So(err, ShouldBeNil)
			So(p.Insights.Empty(), ShouldBeTrue)
		})
	})
}

func TestCollaboratorTimeout(t *testing.T) {
	Convey("Given a social collaborator that never answers", t, func() {
		codeHost, social := fixtures()
		social.block = make(chan struct{})
		defer close(social.block)
		engine := newEngine(codeHost, social, enrichment.WithFetchTimeout(20*time.Millisecond))

		start := time.Now()
		p, err := engine.Enrich(context.Background(), model.PlatformGitHub, "janedoe")

		Convey("Then enrichment returns promptly without the social source", func() {
			So(err, ShouldBeNil)
			So(time.Since(start), ShouldBeLessThan, time.Second)
			So(p.Sources, ShouldResemble, []model.Platform{model.PlatformGitHub, model.PlatformLinkedIn})
			So(p.Candidate.XProfile, ShouldBeNil)
		})
	})
}

func TestEnrichBatch(t *testing.T) {
	Convey("Given a batch with good, failing and anchorless records", t, func() {
		codeHost, social := fixtures()
		engine := newEngine(codeHost, social, enrichment.WithConcurrency(2))

		in := []model.PartialCandidate{
			{GitHubUsername: "janedoe", XUsername: "ignored", Base: model.Candidate{ID: "a", Notes: "referred"}},
			{Base: model.Candidate{ID: "b", Name: "No Anchor"}},
			{GitHubUsername: "nobody", Base: model.Candidate{ID: "c", Name: "Missing"}},
			{XUsername: "anchor", Base: model.Candidate{ID: "d", Name: "Original Name"}},
		}
		out := engine.EnrichBatch(context.Background(), in)

		Convey("Then every slot is kept in input order", func() {
			So(len(out), ShouldEqual, len(in))
			ids := []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID}
			So(ids, ShouldResemble, []string{"a", "b", "c", "d"})
		})

		Convey("Then enriched fields fill gaps and original fields win", func() {
			So(out[0].Name, ShouldEqual, "Jane Doe")
			So(out[0].Notes, ShouldEqual, "referred")
			So(out[0].GitHubProfile.Username, ShouldEqual, "janedoe")
			So(out[3].Name, ShouldEqual, "Original Name")
			So(out[3].XProfile.Username, ShouldEqual, "anchor")
		})

		Convey("Then failed records are the rescored base", func() {
			So(out[1].Name, ShouldEqual, "No Anchor")
			So(out[2].Name, ShouldEqual, "Missing")
			So(out[2].GitHubProfile, ShouldBeNil)
			for _, c := range out {
				So(scoring.Consistent(c), ShouldBeTrue)
			}
		})
	})
}

func TestOverlay(t *testing.T) {
	Convey("Given an enriched record and an original", t, func() {
		enriched := model.Candidate{
			Name:         "Enriched",
			Email:        "e@example.com",
			CurrentTitle: "Engineer",
			Experiences:  []model.Experience{{Company: "Meta"}},
		}
		original := model.Candidate{
			ID:                   "x1",
			Email:                "o@example.com",
			TotalYearsExperience: 6,
		}

		got := enrichment.Overlay(enriched, original)

		So(got.ID, ShouldEqual, "x1")
		So(got.Name, ShouldEqual, "Enriched")
		So(got.Email, ShouldEqual, "o@example.com")
		So(got.CurrentTitle, ShouldEqual, "Engineer")
		So(got.Experiences, ShouldResemble, []model.Experience{{Company: "Meta"}})
		So(got.TotalYearsExperience, ShouldEqual, 6)
	})
}
