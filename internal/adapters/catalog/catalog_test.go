package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/bingo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const yamlCatalog = `rules:
  - Complete a line.
difficulty:
  easymax: 2
  normmin: 3
  normmax: 5
  hardmin: 6
tags:
  Fish:
    allowmultiple: true
    singleuse: false
  Mr. Resetti:
    allowmultiple: false
    singleuse: true
    image: https://example.com/resetti.png
goals:
  - name: Catch a Bass
    difficulty: 1
    tags: [Fish]
  - name: Meet Mr. Resetti
    difficulty: 7
    tags: [Mr. Resetti]
`

const jsonCatalog = `{
  "rules": ["Complete a line."],
  "difficulty": {"easymax": 3, "normmin": 3, "normmax": 6, "hardmin": 6},
  "tags": {"Fish": {"allowmultiple": true, "singleuse": false}},
  "goals": [
    {"name": "Catch a Bass", "difficulty": 1, "tags": ["Fish"]},
    {"name": "Catch a Coelacanth", "difficulty": 8, "tags": ["Fish", "Rare"]}
  ],
  "modifiers": []
}`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	Convey("Given the embedded catalog", t, func() {
		c, err := Default(context.Background())

		Convey("Then it should load and validate", func() {
			So(err, ShouldBeNil)
			So(len(c.Goals), ShouldEqual, 154)
			So(len(c.Tags), ShouldEqual, 17)
			So(len(c.Rules), ShouldEqual, 6)
			So(c.Thresholds, ShouldResemble, model.Thresholds{EasyMax: 3, NormMin: 3, NormMax: 6, HardMin: 6})
		})

		Convey("Then exclusive tags should be flagged", func() {
			So(err, ShouldBeNil)
			So(c.Tag("Debts").AllowMultiple, ShouldBeFalse)
			So(c.Tag("Series").AllowMultiple, ShouldBeTrue)
			So(c.Tag("Series").SingleUse, ShouldBeTrue)
			So(c.Tag("Fish").SingleUse, ShouldBeFalse)
		})

		Convey("Then every goal tag should be declared", func() {
			So(err, ShouldBeNil)
			So(UndeclaredTags(c), ShouldBeEmpty)
		})

		Convey("Then the buckets should cover the boundary goals twice", func() {
			So(err, ShouldBeNil)
			So(Summary(c), ShouldResemble, map[model.Bucket]int{
				model.Easy: 67, model.Normal: 95, model.Hard: 36,
			})
		})
	})
}

func TestLoad(t *testing.T) {
	Convey("Given catalog files on disk", t, func() {
		ctx := context.Background()

		Convey("When the path is empty", func() {
			c, err := Load(ctx, "  ")

			Convey("Then the embedded catalog should be returned", func() {
				So(err, ShouldBeNil)
				So(len(c.Goals), ShouldEqual, 154)
			})
		})

		Convey("When loading a JSON catalog", func() {
			c, err := LoadFile(ctx, writeFile(t, "settings.json", jsonCatalog))

			Convey("Then goals and thresholds should be decoded", func() {
				So(err, ShouldBeNil)
				So(len(c.Goals), ShouldEqual, 2)
				So(c.Goals[1].Tags, ShouldResemble, []string{"Fish", "Rare"})
				So(c.Thresholds.HardMin, ShouldEqual, 6)
			})

			Convey("And undeclared tags should be reported", func() {
				So(err, ShouldBeNil)
				So(UndeclaredTags(c), ShouldResemble, []string{"Rare"})
				So(c.Tag("Rare"), ShouldResemble, model.DefaultTagMeta)
			})
		})

		Convey("When loading a YAML catalog with dotted tag names", func() {
			c, err := LoadFile(ctx, writeFile(t, "settings.yaml", yamlCatalog))

			Convey("Then the tag table should keep the full name", func() {
				So(err, ShouldBeNil)
				So(len(c.Goals), ShouldEqual, 2)
				meta, ok := c.Tags["Mr. Resetti"]
				So(ok, ShouldBeTrue)
				So(meta.AllowMultiple, ShouldBeFalse)
				So(meta.SingleUse, ShouldBeTrue)
				So(meta.Icon, ShouldEqual, "https://example.com/resetti.png")
				So(c.Thresholds, ShouldResemble, model.Thresholds{EasyMax: 2, NormMin: 3, NormMax: 5, HardMin: 6})
			})
		})

		Convey("When the file does not exist", func() {
			_, err := LoadFile(ctx, filepath.Join(t.TempDir(), "missing.json"))

			Convey("Then a load error should be returned", func() {
				So(errors.Is(err, ErrLoadCatalog), ShouldBeTrue)
			})
		})

		Convey("When the extension is unsupported", func() {
			_, err := LoadFile(ctx, writeFile(t, "settings.toml", ""))

			Convey("Then a load error should be returned", func() {
				So(errors.Is(err, ErrLoadCatalog), ShouldBeTrue)
			})
		})

		Convey("When the JSON is malformed", func() {
			_, err := LoadFile(ctx, writeFile(t, "broken.json", `{"goals": [`))

			Convey("Then a load error should be returned", func() {
				So(errors.Is(err, ErrLoadCatalog), ShouldBeTrue)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	thresholds := model.Thresholds{EasyMax: 3, NormMin: 3, NormMax: 6, HardMin: 6}
	valid := func() *model.Catalog {
		return &model.Catalog{
			Goals: []model.Goal{
				{Name: "a", Difficulty: 1, Tags: []string{"Fish"}},
				{Name: "b", Difficulty: 7, Tags: []string{"Debts"}},
			},
			Tags: map[string]model.TagMeta{
				"Debts": {AllowMultiple: false, SingleUse: true, Icon: "https://example.com/d.png"},
			},
			Thresholds: thresholds,
		}
	}

	Convey("Given catalogs to validate", t, func() {
		cases := []struct {
			name   string
			mutate func(*model.Catalog)
		}{
			{"no goals", func(c *model.Catalog) { c.Goals = nil }},
			{"empty name", func(c *model.Catalog) { c.Goals[0].Name = "" }},
			{"difficulty below range", func(c *model.Catalog) { c.Goals[0].Difficulty = 0 }},
			{"difficulty above range", func(c *model.Catalog) { c.Goals[0].Difficulty = 11 }},
			{"no tags", func(c *model.Catalog) { c.Goals[0].Tags = nil }},
			{"blank tag", func(c *model.Catalog) { c.Goals[0].Tags = []string{""} }},
			{"duplicate names", func(c *model.Catalog) { c.Goals[1].Name = "a" }},
			{"inverted thresholds", func(c *model.Catalog) { c.Thresholds.HardMin = 2 }},
			{"bad icon", func(c *model.Catalog) { c.Tags["Debts"] = model.TagMeta{Icon: "not a url"} }},
		}

		Convey("A valid catalog should pass", func() {
			So(Validate(valid()), ShouldBeNil)
		})

		Convey("A nil catalog should fail", func() {
			So(errors.Is(Validate(nil), ErrInvalidCatalog), ShouldBeTrue)
		})

		for _, tc := range cases {
			Convey("A catalog with "+tc.name+" should fail", func() {
				c := valid()
				tc.mutate(c)
				So(errors.Is(Validate(c), ErrInvalidCatalog), ShouldBeTrue)
			})
		}
	})
}
