package scoring_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/model"
	scoring "github.com/okian/talentradar/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

func newEngine(opts ...scoring.Option) *scoring.Engine {
	opts = append([]scoring.Option{scoring.WithClock(func() time.Time { return fixedNow })}, opts...)
	return scoring.New(opts...)
}

func notable(n int) []model.Project {
	out := make([]model.Project, n)
	for i := range out {
		out[i] = model.Project{Name: "repo", Stars: 100}
	}
	return out
}

func TestEmptyCandidate(t *testing.T) {
	Convey("Given a candidate without facts", t, func() {
		engine := newEngine()
		c := model.Candidate{Name: "Nobody"}

		Convey("When it is scored", func() {
			engine.Apply(&c)

			Convey("Then every sub-score and the total are zero", func() {
				So(c.Score, ShouldResemble, model.Score{})
				So(c.Tier, ShouldEqual, model.TierLow)
			})
		})
	})
}

func TestScenarioFrontierLab(t *testing.T) {
	Convey("Given a research scientist at OpenAI for 30 months", t, func() {
		engine := newEngine()
		c := model.Candidate{
			Name:        "Ada",
			Experiences: []model.Experience{{Company: "OpenAI", Title: "Research Scientist", DurationMonths: 30}},
		}

		Convey("When it is scored", func() {
			engine.Apply(&c)

			Convey("Then the frontier sub-score is capped at 100", func() {
				So(c.Score.FrontierLabs, ShouldEqual, 100)
			})

			Convey("Then only the frontier weight contributes", func() {
				So(c.Score.Total, ShouldEqual, 35.0)
				So(c.Score.FAANG, ShouldEqual, 0)
				So(c.Score.TopTech, ShouldEqual, 0)
				So(c.Score.Leadership, ShouldEqual, 0)
				So(c.Tier, ShouldEqual, model.TierLow)
			})
		})
	})
}

func TestScenarioGitHub(t *testing.T) {
	Convey("Given a prolific code-hosting profile", t, func() {
		engine := newEngine()
		c := model.Candidate{
			Name: "Linus",
			GitHubProfile: &model.GitHubStats{
				Followers:             1000,
				TotalStars:            2000,
				ContributionsLastYear: 600,
				NotableProjects:       notable(6),
				PublicRepos:           80,
			},
		}

		Convey("When it is scored", func() {
			engine.Apply(&c)

			Convey("Then every capped term is hit", func() {
				So(c.Score.GitHub, ShouldEqual, 100)
				So(c.Score.OpenSource, ShouldEqual, 100)
			})

			Convey("Then the total reflects the github weights only", func() {
				So(c.Score.Total, ShouldEqual, 27.0)
				So(c.Tier, ShouldEqual, model.TierLow)
			})
		})
	})
}

func TestTierBoundaries(t *testing.T) {
	Convey("Given total scores around the thresholds", t, func() {
		So(scoring.TierFor(75.0), ShouldEqual, model.TierTop)
		So(scoring.TierFor(120.0), ShouldEqual, model.TierTop)
		So(scoring.TierFor(74.999), ShouldEqual, model.TierHigh)
		So(scoring.TierFor(60.0), ShouldEqual, model.TierHigh)
		So(scoring.TierFor(59.999), ShouldEqual, model.TierMedium)
		So(scoring.TierFor(40.0), ShouldEqual, model.TierMedium)
		So(scoring.TierFor(39.999), ShouldEqual, model.TierLow)
		So(scoring.TierFor(0), ShouldEqual, model.TierLow)
	})
}

func TestEmployerSubScores(t *testing.T) {
	Convey("Given employer tier experiences", t, func() {
		engine := newEngine()

		Convey("A senior FAANG role earns base, duration and seniority", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "google llc", Title: "Senior Software Engineer", DurationMonths: 18},
			}})
			So(s.FAANG, ShouldEqual, 85)
		})

		Convey("FAANG duration is summed across roles and capped", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Meta", Title: "Engineer", DurationMonths: 30},
				{Company: "Amazon", Title: "Engineer", DurationMonths: 30},
			}})
			So(s.FAANG, ShouldEqual, 80)
		})

		Convey("Over-matching names are classified as FAANG", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Googleplex Inc", Title: "Engineer", DurationMonths: 0},
			}})
			So(s.FAANG, ShouldEqual, 50)
		})

		Convey("Frontier labs reward research titles", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Anthropic", Title: "Member of Technical Staff", DurationMonths: 12},
			}})
			So(s.FrontierLabs, ShouldEqual, 75)
		})

		Convey("Top tech counts distinct companies and excludes higher tiers", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Stripe", Title: "Engineer", DurationMonths: 18},
				{Company: "Uber", Title: "Engineer", DurationMonths: 18},
				{Company: "Netflix", Title: "Engineer", DurationMonths: 48},
			}})
			So(s.TopTech, ShouldEqual, 90)
		})

		Convey("Top tech distinct employer bonus caps at 20", func() {
			var exps []model.Experience
			for _, c := range []string{"Stripe", "Uber", "Lyft", "Airbnb", "Dropbox", "Reddit"} {
				exps = append(exps, model.Experience{Company: c, Title: "Engineer"})
			}
			s := engine.Score(model.Candidate{Experiences: exps})
			So(s.TopTech, ShouldEqual, 60)
		})

		Convey("Open-ended roles are measured against the clock", func() {
			start := time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Google", Title: "Engineer", StartDate: &start},
			}})
			So(s.FAANG, ShouldEqual, 80)
		})
	})
}

func TestProfileSubScores(t *testing.T) {
	Convey("Given profile facts", t, func() {
		engine := newEngine()

		Convey("Social engagement passes through clamped", func() {
			So(engine.Score(model.Candidate{XProfile: &model.SocialProfile{EngagementScore: 42.5}}).XEngagement, ShouldEqual, 42.5)
			So(engine.Score(model.Candidate{XProfile: &model.SocialProfile{EngagementScore: 150}}).XEngagement, ShouldEqual, 100)
			So(engine.Score(model.Candidate{XProfile: &model.SocialProfile{EngagementScore: -3}}).XEngagement, ShouldEqual, 0)
		})

		Convey("Research counts papers, citations and recent work", func() {
			s := engine.Score(model.Candidate{Publications: []model.ResearchPublication{
				{Title: "a", Year: 2023, Citations: 20},
				{Title: "b", Year: 2022, Citations: 30},
				{Title: "c", Year: 2019},
			}})
			So(s.Research, ShouldEqual, 60)
		})

		Convey("Research caps at 100", func() {
			var pubs []model.ResearchPublication
			for i := 0; i < 6; i++ {
				pubs = append(pubs, model.ResearchPublication{Year: 2024, Citations: 100})
			}
			So(engine.Score(model.Candidate{Publications: pubs}).Research, ShouldEqual, 100)
		})

		Convey("Education sums degree bonuses at top universities", func() {
			s := engine.Score(model.Candidate{Education: []model.Education{
				{Institution: "Stanford University", Degree: "PhD"},
				{Institution: "MIT", Degree: "BS"},
			}})
			So(s.Education, ShouldEqual, 100)

			s = engine.Score(model.Candidate{Education: []model.Education{
				{Institution: "Stanford University", Degree: "Master of Science"},
			}})
			So(s.Education, ShouldEqual, 80)
		})

		Convey("Degree markers are case-sensitive", func() {
			s := engine.Score(model.Candidate{Education: []model.Education{
				{Institution: "Stanford University", Degree: "phd"},
			}})
			So(s.Education, ShouldEqual, 60)
		})

		Convey("Other institutions get a base and an advanced degree bonus", func() {
			s := engine.Score(model.Candidate{Education: []model.Education{
				{Institution: "State College", Degree: "BS"},
				{Institution: "Regional University", Degree: "PhD"},
			}})
			So(s.Education, ShouldEqual, 50)

			s = engine.Score(model.Candidate{Education: []model.Education{{Institution: "State College"}}})
			So(s.Education, ShouldEqual, 30)
		})

		Convey("Years of experience follow the piecewise curve", func() {
			cases := map[float64]float64{-1: 0, 0: 0, 1: 25, 3: 60, 5: 80, 10: 90, 15: 100, 30: 100}
			for years, want := range cases {
				So(engine.Score(model.Candidate{TotalYearsExperience: years}).YearsExperience, ShouldEqual, want)
			}
		})

		Convey("Leadership sums per-role bonuses and duration", func() {
			s := engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Acme", Title: "Director of Engineering", DurationMonths: 36},
				{Company: "Acme", Title: "Senior Engineer", DurationMonths: 12},
			}})
			So(s.Leadership, ShouldEqual, 100)

			s = engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Acme", Title: "Tech Lead", DurationMonths: 18},
			}})
			So(s.Leadership, ShouldEqual, 60)

			s = engine.Score(model.Candidate{Experiences: []model.Experience{
				{Company: "Acme", Title: "Engineering Manager"},
			}})
			So(s.Leadership, ShouldEqual, 40)
		})
	})
}

func TestWeightedTotal(t *testing.T) {
	Convey("Given a rich candidate", t, func() {
		c := model.Candidate{
			Name: "Jane",
			Experiences: []model.Experience{
				{Company: "Google", Title: "Senior Software Engineer", DurationMonths: 24},
				{Company: "OpenAI", Title: "Research Engineer", DurationMonths: 12},
			},
			Education:            []model.Education{{Institution: "Stanford", Degree: "MS Computer Science"}},
			TotalYearsExperience: 6,
			GitHubProfile: &model.GitHubStats{
				Followers: 250, TotalStars: 500, ContributionsLastYear: 250,
				NotableProjects: notable(2), PublicRepos: 25,
			},
		}

		Convey("With default weights the total is the unnormalised weighted sum", func() {
			s := newEngine().Score(c)
			So(s.FAANG, ShouldEqual, 90)
			So(s.FrontierLabs, ShouldEqual, 85)
			So(s.GitHub, ShouldEqual, 48.5)
			So(s.Education, ShouldEqual, 80)
			So(s.YearsExperience, ShouldEqual, 82)
			So(s.OpenSource, ShouldEqual, 77)
			So(s.Leadership, ShouldAlmostEqual, 63.3333, 0.001)
			So(s.Total, ShouldAlmostEqual, 98.5317, 0.001)
			So(scoring.TierFor(s.Total), ShouldEqual, model.TierTop)
		})

		Convey("With injected weights the total follows them", func() {
			engine := newEngine(scoring.WithWeights(scoring.Weights{Education: 100}))
			So(engine.Score(c).Total, ShouldEqual, 80)
		})

		Convey("With injected tables classification follows them", func() {
			tables := classify.New(classify.Lists{FAANG: []string{"Acme"}})
			engine := newEngine(scoring.WithTables(tables))
			s := engine.Score(c)
			So(s.FAANG, ShouldEqual, 0)
			So(s.FrontierLabs, ShouldEqual, 0)
			So(engine.Tables(), ShouldEqual, tables)
		})
	})
}

func TestScoringProperties(t *testing.T) {
	Convey("Given a candidate with several experiences", t, func() {
		engine := newEngine()
		base := model.Candidate{
			Name: "Perm",
			Experiences: []model.Experience{
				{Company: "Google", Title: "Staff Engineer", DurationMonths: 20},
				{Company: "Stripe", Title: "Engineer", DurationMonths: 10},
				{Company: "Anthropic", Title: "Research Lead", DurationMonths: 8},
				{Company: "Uber", Title: "Senior Engineer", DurationMonths: 14},
			},
			Education: []model.Education{
				{Institution: "MIT", Degree: "BS"},
				{Institution: "Stanford", Degree: "PhD"},
			},
			Publications: []model.ResearchPublication{{Year: 2021, Citations: 7}, {Year: 2024, Citations: 3}},
		}

		Convey("Scoring is invariant to list order", func() {
			want := engine.Score(base)
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 20; i++ {
				c := base
				c.Experiences = append([]model.Experience(nil), base.Experiences...)
				c.Education = append([]model.Education(nil), base.Education...)
				rng.Shuffle(len(c.Experiences), func(a, b int) { c.Experiences[a], c.Experiences[b] = c.Experiences[b], c.Experiences[a] })
				rng.Shuffle(len(c.Education), func(a, b int) { c.Education[a], c.Education[b] = c.Education[b], c.Education[a] })
				So(engine.Score(c), ShouldResemble, want)
			}
		})

		Convey("Adding a qualifying experience never lowers the sub-score", func() {
			before := engine.Score(base)
			c := base
			c.Experiences = append(append([]model.Experience(nil), base.Experiences...),
				model.Experience{Company: "Apple", Title: "Engineer", DurationMonths: 6},
				model.Experience{Company: "Cohere", Title: "Engineer", DurationMonths: 6},
				model.Experience{Company: "Lyft", Title: "Engineer", DurationMonths: 6},
			)
			after := engine.Score(c)
			So(after.FAANG, ShouldBeGreaterThanOrEqualTo, before.FAANG)
			So(after.FrontierLabs, ShouldBeGreaterThanOrEqualTo, before.FrontierLabs)
			So(after.TopTech, ShouldBeGreaterThanOrEqualTo, before.TopTech)
		})

		Convey("Scoring twice yields identical results", func() {
			So(engine.Score(base), ShouldResemble, engine.Score(base))
		})

		Convey("Every sub-score stays within bounds", func() {
			s := engine.Score(base)
			for _, v := range []float64{s.FAANG, s.FrontierLabs, s.TopTech, s.GitHub, s.XEngagement,
				s.Research, s.Education, s.YearsExperience, s.OpenSource, s.Leadership} {
				So(v, ShouldBeBetweenOrEqual, 0, 100)
			}
		})
	})
}

func TestApplyAndBatch(t *testing.T) {
	Convey("Given several candidates", t, func() {
		engine := newEngine()
		cs := []model.Candidate{
			{Name: "a"},
			{Name: "b", Experiences: []model.Experience{{Company: "OpenAI", Title: "Researcher", DurationMonths: 24}}},
			{Name: "c", TotalYearsExperience: 10},
		}

		Convey("ScoreBatch preserves input order", func() {
			scores, err := engine.ScoreBatch(context.Background(), cs)
			So(err, ShouldBeNil)
			So(len(scores), ShouldEqual, 3)
			for i := range cs {
				So(scores[i], ShouldResemble, engine.Score(cs[i]))
			}
		})

		Convey("ScoreBatch honours cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := engine.ScoreBatch(ctx, cs)
			So(err, ShouldNotBeNil)
		})

		Convey("Apply keeps score and tier consistent", func() {
			c := cs[1]
			c.Tier = model.TierTop
			So(scoring.Consistent(c), ShouldBeFalse)
			engine.Apply(&c)
			So(scoring.Consistent(c), ShouldBeTrue)
			So(c.Tier, ShouldEqual, model.TierLow)
		})
	})
}
