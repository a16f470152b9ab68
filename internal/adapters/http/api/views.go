package api

import (
	"github.com/okian/talentradar/internal/domain/classify"
	"github.com/okian/talentradar/internal/domain/model"
)

// experienceView adds employer flags computed at response time.
type experienceView struct {
	model.Experience
	classify.ExperienceFlags
}

type educationView struct {
	model.Education
	IsTopUniversity bool `json:"is_top_university"`
}

// candidateView shadows the stored lists with their flagged versions.
type candidateView struct {
	model.Candidate
	Experiences []experienceView `json:"experiences"`
	Education   []educationView  `json:"education"`
}

func (s *Server) view(c model.Candidate) candidateView {
	v := candidateView{
		Candidate:   c,
		Experiences: make([]experienceView, len(c.Experiences)),
		Education:   make([]educationView, len(c.Education)),
	}
	for i, e := range c.Experiences {
		v.Experiences[i] = experienceView{Experience: e, ExperienceFlags: s.tables.Experience(e)}
	}
	for i, e := range c.Education {
		v.Education[i] = educationView{Education: e, IsTopUniversity: s.tables.IsTopUniversity(e.Institution)}
	}
	return v
}

func (s *Server) views(cs []model.Candidate) []candidateView {
	out := make([]candidateView, len(cs))
	for i, c := range cs {
		out[i] = s.view(c)
	}
	return out
}
