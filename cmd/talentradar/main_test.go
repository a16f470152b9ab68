package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentradar/internal/domain/model"
)

func execute(stdin string, args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	Convey("Given the score command", t, func() {
		Convey("A single candidate on stdin is scored", func() {
			out, err := execute(`{"id":"c-1","name":"Ada","experiences":[{"company":"OpenAI","title":"Research Engineer","duration_months":24}]}`, "score")
			So(err, ShouldBeNil)

			var got []scoredCandidate
			So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
			So(got, ShouldHaveLength, 1)
			So(got[0].ID, ShouldEqual, "c-1")
			So(got[0].Score.FrontierLabs, ShouldEqual, 100)
			So(got[0].Score.Total, ShouldBeGreaterThan, 0)
		})

		Convey("An array read from a file keeps its order", func() {
			path := filepath.Join(t.TempDir(), "candidates.json")
			So(os.WriteFile(path, []byte(`[{"name":"Bob"},{"name":"Carol","total_years_experience":20}]`), 0o600), ShouldBeNil)

			out, err := execute("", "score", path)
			So(err, ShouldBeNil)

			var got []scoredCandidate
			So(json.Unmarshal([]byte(out), &got), ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].Name, ShouldEqual, "Bob")
			So(got[0].Tier, ShouldEqual, model.TierLow)
			So(got[1].Score.YearsExperience, ShouldEqual, 100)
		})

		Convey("Invalid candidates are rejected", func() {
			_, err := execute(`{"name":""}`, "score")
			So(err, ShouldNotBeNil)
		})

		Convey("Empty input is rejected", func() {
			_, err := execute("  ", "score")
			So(err, ShouldEqual, errNoInput)
		})
	})
}

func TestEnrichCommand(t *testing.T) {
	Convey("Given the enrich command", t, func() {
		Convey("An unknown platform is rejected before any fetch", func() {
			_, err := execute("", "enrich", "--platform", "myspace", "octo")
			So(err, ShouldNotBeNil)
		})

		Convey("A handle is required", func() {
			_, err := execute("", "enrich")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVersionCommand(t *testing.T) {
	Convey("The version command prints the build version", t, func() {
		out, err := execute("", "version")
		So(err, ShouldBeNil)
		So(strings.TrimSpace(out), ShouldEqual, version)
	})
}
