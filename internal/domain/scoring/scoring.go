// Package scoring turns a candidate's facts into a weighted score breakdown
// and a priority tier.
package scoring

import (
	"context"
	"math"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/model"
)

// Sub-score cap and tier thresholds.
const (
	maxSubScore = 100

	topThreshold    = 75
	highThreshold   = 60
	mediumThreshold = 40

	recentPublicationYear = 2022
)

var (
	seniorKeywords     = []string{"senior", "staff", "principal", "lead", "director", "architect"}
	leadershipKeywords = []string{"lead", "principal", "staff", "senior", "director", "manager", "head", "vp", "chief", "architect"}
)

// Weights sets the relative importance of each sub-score. Weights do not
// need to sum to 100; the total is Σ(sub × weight) / 100 and is not
// normalised.
type Weights struct {
	FAANG        float64
	FrontierLabs float64
	TopTech      float64
	GitHub       float64
	XEngagement  float64
	Research     float64
	Education    float64
	Years        float64
	OpenSource   float64
	Leadership   float64
}

// DefaultWeights returns the stock weight set (sum 180).
func DefaultWeights() Weights {
	return Weights{
		FAANG:        30,
		FrontierLabs: 35,
		TopTech:      25,
		GitHub:       15,
		XEngagement:  10,
		Research:     20,
		Education:    15,
		Years:        10,
		OpenSource:   12,
		Leadership:   8,
	}
}

// Scorer scores candidates.
type Scorer interface {
	// Score computes the breakdown for c. It never fails.
	Score(c model.Candidate) model.Score
	// Apply rescores c in place, setting Score and Tier together.
	Apply(c *model.Candidate)
}

// Engine is the immutable scoring engine.
type Engine struct {
	weights Weights
	tables  *classify.Tables
	now     func() time.Time
}

var _ Scorer = (*Engine)(nil)

// New creates an Engine. Defaults: DefaultWeights, classify.Default, time.Now.
func New(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		tables:  classify.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Weights returns the engine's weight set.
func (e *Engine) Weights() Weights { return e.weights }

// Tables returns the engine's classification tables.
func (e *Engine) Tables() *classify.Tables { return e.tables }

// Score computes the breakdown for c. It is a pure function of c, the
// weights, the tables and the clock; absent facts contribute 0.
func (e *Engine) Score(c model.Candidate) model.Score {
	now := e.now()
	s := model.Score{
		FAANG:           e.faang(c.Experiences, now),
		FrontierLabs:    e.frontierLabs(c.Experiences, now),
		TopTech:         e.topTech(c.Experiences, now),
		Research:        research(c.Publications),
		Education:       e.education(c.Education),
		YearsExperience: yearsExperience(c.TotalYearsExperience),
		Leadership:      leadership(c.Experiences, now),
	}
	if c.GitHubProfile != nil {
		s.GitHub = github(*c.GitHubProfile)
		s.OpenSource = openSource(*c.GitHubProfile)
	}
	if c.XProfile != nil {
		s.XEngagement = clamp(c.XProfile.EngagementScore)
	}

	w := e.weights
	s.Total = s.FAANG*w.FAANG/100 +
		s.FrontierLabs*w.FrontierLabs/100 +
		s.TopTech*w.TopTech/100 +
		s.GitHub*w.GitHub/100 +
		s.XEngagement*w.XEngagement/100 +
		s.Research*w.Research/100 +
		s.Education*w.Education/100 +
		s.YearsExperience*w.Years/100 +
		s.OpenSource*w.OpenSource/100 +
		s.Leadership*w.Leadership/100
	return s
}

// Apply rescores c in place.
func (e *Engine) Apply(c *model.Candidate) {
	c.Score = e.Score(*c)
	c.Tier = TierFor(c.Score.Total)
}

// ScoreBatch scores candidates in parallel. Result i belongs to cs[i].
func (e *Engine) ScoreBatch(ctx context.Context, cs []model.Candidate) ([]model.Score, error) {
	out := make([]model.Score, len(cs))
	g, ctx := errgroup.WithContext(ctx)
	for i := range cs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = e.Score(cs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// TierFor maps a total score onto a tier. Thresholds are inclusive.
func TierFor(total float64) model.Tier {
	switch {
	case total >= topThreshold:
		return model.TierTop
	case total >= highThreshold:
		return model.TierHigh
	case total >= mediumThreshold:
		return model.TierMedium
	default:
		return model.TierLow
	}
}

// Consistent reports whether c's tier matches its stored total.
func Consistent(c model.Candidate) bool {
	return c.Tier == TierFor(c.Score.Total)
}

func (e *Engine) faang(exps []model.Experience, now time.Time) float64 {
	months, senior, n := 0, false, 0
	for _, x := range exps {
		if !e.tables.IsFAANG(x.Company) {
			continue
		}
		n++
		months += x.Months(now)
		senior = senior || containsAny(x.Title, seniorKeywords)
	}
	if n == 0 {
		return 0
	}
	score := 50 + capped(float64(months)/36*30, 30)
	if senior {
		score += 20
	}
	return clamp(score)
}

func (e *Engine) frontierLabs(exps []model.Experience, now time.Time) float64 {
	months, researchRole, n := 0, false, 0
	for _, x := range exps {
		if !e.tables.IsFrontierLab(x.Company) {
			continue
		}
		n++
		months += x.Months(now)
		researchRole = researchRole || strings.Contains(strings.ToLower(x.Title), "research")
	}
	if n == 0 {
		return 0
	}
	score := 60 + capped(float64(months)/24*30, 30)
	if researchRole {
		score += 10
	}
	return clamp(score)
}

func (e *Engine) topTech(exps []model.Experience, now time.Time) float64 {
	months := 0
	companies := make(map[string]struct{})
	for _, x := range exps {
		if !e.tables.IsOtherTopTech(x.Company) {
			continue
		}
		months += x.Months(now)
		companies[x.Company] = struct{}{}
	}
	if len(companies) == 0 {
		return 0
	}
	score := 40 + capped(float64(months)/36*40, 40) + capped(float64(len(companies))*5, 20)
	return clamp(score)
}

func github(g model.GitHubStats) float64 {
	score := capped(float64(g.Followers)/500*20, 20) +
		capped(float64(g.TotalStars)/1000*30, 30) +
		capped(float64(g.ContributionsLastYear)/500*25, 25) +
		capped(float64(len(g.NotableProjects))*3, 15) +
		capped(float64(g.PublicRepos)/50*10, 10)
	return clamp(score)
}

func research(pubs []model.ResearchPublication) float64 {
	if len(pubs) == 0 {
		return 0
	}
	citations, recent := 0, 0
	for _, p := range pubs {
		if p.Citations > 0 {
			citations += p.Citations
		}
		if p.Year >= recentPublicationYear {
			recent++
		}
	}
	score := capped(float64(len(pubs))*10, 40) +
		capped(float64(citations)/100*40, 40) +
		capped(float64(recent)*5, 20)
	return clamp(score)
}

func (e *Engine) education(edu []model.Education) float64 {
	if len(edu) == 0 {
		return 0
	}
	var score float64
	top := false
	for _, ed := range edu {
		if !e.tables.IsTopUniversity(ed.Institution) {
			continue
		}
		top = true
		score += degreeBonus(ed.Degree)
	}
	if top {
		return clamp(60 + score)
	}

	score = 30
	for _, ed := range edu {
		if strings.Contains(ed.Degree, "PhD") || strings.Contains(ed.Degree, "Master") {
			score += 20
			break
		}
	}
	return clamp(score)
}

// degreeBonus matches degree markers case-sensitively.
func degreeBonus(degree string) float64 {
	switch {
	case degree == "":
		return 0
	case strings.Contains(degree, "PhD") || strings.Contains(degree, "Ph.D"):
		return 30
	case strings.Contains(degree, "Master") || strings.Contains(degree, "MS") || strings.Contains(degree, "M.S"):
		return 20
	case strings.Contains(degree, "Bachelor") || strings.Contains(degree, "BS") || strings.Contains(degree, "B.S"):
		return 10
	}
	return 0
}

func yearsExperience(years float64) float64 {
	switch {
	case years <= 0:
		return 0
	case years < 2:
		return years * 25
	case years < 5:
		return 50 + (years-2)*10
	case years < 15:
		return 80 + (years-5)*2
	default:
		return maxSubScore
	}
}

func openSource(g model.GitHubStats) float64 {
	score := capped(float64(g.PublicRepos)/30*30, 30) +
		capped(float64(g.TotalStars)/500*40, 40) +
		capped(float64(len(g.NotableProjects))*6, 30)
	return clamp(score)
}

func leadership(exps []model.Experience, now time.Time) float64 {
	var bonus float64
	months, n := 0, 0
	for _, x := range exps {
		title := strings.ToLower(x.Title)
		if !containsAny(title, leadershipKeywords) {
			continue
		}
		n++
		months += x.Months(now)
		switch {
		case containsAny(title, []string{"director", "vp", "chief"}):
			bonus += 30
		case containsAny(title, []string{"principal", "staff"}):
			bonus += 20
		case containsAny(title, []string{"lead", "senior"}):
			bonus += 10
		}
	}
	if n == 0 {
		return 0
	}
	return clamp(40 + bonus + capped(float64(months)/36*20, 20))
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func capped(v, limit float64) float64 {
	return math.Min(v, limit)
}

// clamp bounds a sub-score to [0,100].
func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxSubScore, v))
}
