package universe_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/nameswap/internal/domain/model"
	"github.com/okian/nameswap/internal/domain/universe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefault(t *testing.T) {
	Convey("Given the embedded catalogue", t, func() {
		entries, err := universe.Default()
		So(err, ShouldBeNil)

		Convey("When it is built", func() {
			items, err := universe.Build(entries, 1200)

			Convey("Then both categories should be populated at the baseline", func() {
				So(err, ShouldBeNil)
				counts := map[model.Category]int{}
				for _, it := range items {
					counts[it.Category]++
					So(it.Rating, ShouldEqual, 1200)
				}
				So(counts[model.CategoryBoy], ShouldEqual, 100)
				So(counts[model.CategoryGirl], ShouldEqual, 100)
				So(items[0].ID, ShouldEqual, "boy-Gellért")
			})
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given a YAML catalogue with blanks and duplicates", t, func() {
		doc := []byte("boy:\n  - Ábel\n  - \" \"\n  - Ábel\ngirl:\n  - Anna\n")

		Convey("When it is parsed and built", func() {
			entries, err := universe.Parse(doc)
			So(err, ShouldBeNil)
			items, err := universe.Build(entries, 1500)

			Convey("Then blanks and repeats should be dropped", func() {
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[0], ShouldResemble, model.Item{ID: "boy-Ábel", Label: "Ábel", Category: model.CategoryBoy, Rating: 1500})
				So(items[1].ID, ShouldEqual, "girl-Anna")
			})
		})

		Convey("When the catalogue is empty", func() {
			entries, err := universe.Parse([]byte("boy: []\n"))
			So(err, ShouldBeNil)
			_, err = universe.Build(entries, 1200)
			So(errors.Is(err, universe.ErrEmptyCatalogue), ShouldBeTrue)
		})

		Convey("When an entry has an unknown category", func() {
			_, err := universe.Build([]universe.Entry{{Label: "Rex", Category: "dog"}}, 1200)
			So(errors.Is(err, model.ErrUnknownCategory), ShouldBeTrue)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("Given a catalogue file on disk", t, func() {
		path := filepath.Join(t.TempDir(), "names.yaml")
		So(os.WriteFile(path, []byte("girl:\n  - Lilla\n  - Panna\n"), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			entries, err := universe.LoadFile(path)

			Convey("Then its entries should be returned in order", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldResemble, []universe.Entry{
					{Label: "Lilla", Category: model.CategoryGirl},
					{Label: "Panna", Category: model.CategoryGirl},
				})
			})
		})

		Convey("When the file does not exist", func() {
			_, err := universe.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}
