/*******************************************************************************
 * Copyright (c) 2026 British Columbia Centre for Disease Control
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package warehouse_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/BCCDC-PHL/tb-db/parse"
	"github.com/BCCDC-PHL/tb-db/warehouse"
)

func TestCgmlstProfiles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with a library", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		pc := 75.0
		rec := parse.CgmlstProfile{
			SampleID:      "SAM001",
			PercentCalled: &pc,
			Profile:       map[string]string{"locus_1": "1", "locus_2": "-"},
		}

		Convey("you can store a profile against its run's library", func() {
			stats, err := db.StoreCgmlstProfiles(ctx, "RUN1", nil, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			Convey("and reloading replaces it rather than duplicating", func() {
				rec.Profile["locus_2"] = "4"

				stats, err := db.StoreCgmlstProfiles(ctx, "RUN1", nil, []parse.CgmlstProfile{rec})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.CgmlstProfiles, ShouldEqual, 1)

				p, err := db.GetCgmlstProfile(ctx, "SAM001", "RUN1")
				So(err, ShouldBeNil)
				So(p.Profile, ShouldContainSubstring, `"locus_2":"4"`)
				So(*p.PercentCalled, ShouldEqual, 75.0)
			})
		})

		Convey("a named scheme is created once and linked to profiles", func() {
			scheme := &warehouse.SchemeInfo{Name: "cgmlst-mtbc", Version: "2.1", NumLoci: 2891}

			_, err := db.StoreCgmlstProfiles(ctx, "RUN1", scheme, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)

			_, err = db.StoreCgmlstProfiles(ctx, "RUN1", scheme, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)

			var schemes int

			err = db.Handle().QueryRow("SELECT COUNT(*) FROM cgmlst_scheme").Scan(&schemes)
			So(err, ShouldBeNil)
			So(schemes, ShouldEqual, 1)

			sc, err := db.GetCgmlstScheme(ctx, "cgmlst-mtbc")
			So(err, ShouldBeNil)
			So(sc.Version, ShouldEqual, "2.1")
			So(sc.NumLoci, ShouldEqual, 2891)

			p, err := db.GetCgmlstProfile(ctx, "SAM001", "RUN1")
			So(err, ShouldBeNil)
			So(p.SchemeRowID, ShouldNotBeNil)
			So(*p.SchemeRowID, ShouldEqual, sc.ID)
		})

		Convey("a profile for a run with no library is skipped", func() {
			rec.SampleID = "SAM002"

			stats, err := db.StoreCgmlstProfiles(ctx, "RUN1", nil, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)
			So(stats.Skipped, ShouldEqual, 1)

			Convey("leaving the lazily created sample behind", func() {
				s, err := db.GetSample(ctx, "SAM002")
				So(err, ShouldBeNil)
				So(s.CollectionDate, ShouldBeNil)
			})
		})

		Convey("profiles land on the right library when a sample has two runs", func() {
			storeLibrary(t, db, "SAM001", "RUN2")

			_, err := db.StoreCgmlstProfiles(ctx, "RUN1", nil, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)

			_, err = db.StoreCgmlstProfiles(ctx, "RUN2", nil, []parse.CgmlstProfile{rec})
			So(err, ShouldBeNil)

			var n int

			err = db.Handle().QueryRow("SELECT COUNT(DISTINCT library_id) " +
				"FROM cgmlst_allele_profile").Scan(&n)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})
}

func TestMiruProfiles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a warehouse database", t, func() {
		db := newTestDB(t)

		pc := 50.0
		rec := parse.MiruProfile{
			SampleID:          "SAM001",
			Accession:         "ACC-9",
			CollectionDate:    date(2009, 11, 15),
			PercentCalled:     &pc,
			ProfileByPosition: map[int]string{154: "2", 424: "-"},
			MiruPattern:       "223125173533",
			QuarterTested:     "2009-Q4",
			YearTested:        "2009",
		}

		Convey("a MIRU profile creates its sample with the sheet's fields", func() {
			stats, err := db.StoreMiruProfiles(ctx, []parse.MiruProfile{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			s, err := db.GetSample(ctx, "SAM001")
			So(err, ShouldBeNil)
			So(s.Accession, ShouldEqual, "ACC-9")
			So(s.CollectionDate, ShouldNotBeNil)

			Convey("and the quarter and year of test are stored with it", func() {
				p, err := db.GetMiruProfile(ctx, "SAM001")
				So(err, ShouldBeNil)
				So(p.QuarterTested, ShouldEqual, "2009-Q4")
				So(p.YearTested, ShouldEqual, "2009")
				So(p.MiruPattern, ShouldEqual, "223125173533")
			})

			Convey("and reloading keeps one profile per sample", func() {
				rec.ProfileByPosition[424] = "3"

				stats, err := db.StoreMiruProfiles(ctx, []parse.MiruProfile{rec})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.MiruProfiles, ShouldEqual, 1)
				So(info.SampleVersions, ShouldEqual, 1)

				p, err := db.GetMiruProfile(ctx, "SAM001")
				So(err, ShouldBeNil)
				So(p.QuarterTested, ShouldEqual, "2009-Q4")
				So(p.ProfileByPosition, ShouldContainSubstring, `"424":"3"`)
			})

			Convey("and a cluster code on the row attaches the sample", func() {
				rec.Cluster = "BC278"

				_, err := db.StoreMiruProfiles(ctx, []parse.MiruProfile{rec})
				So(err, ShouldBeNil)

				codes, err := db.ClusterCodesBySample(ctx, "SAM001")
				So(err, ShouldBeNil)
				So(codes.Miru, ShouldResemble, []string{"BC278"})
			})
		})
	})
}

func TestComplexes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with a library", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		mtbc := 0.98
		rec := parse.Complex{SampleID: "SAM001", MtbcProp: &mtbc, Complex: "MTBC"}

		Convey("complex calls are one per library, overwritten on reload", func() {
			stats, err := db.StoreComplexes(ctx, "RUN1", []parse.Complex{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			rec.Complex = "NTM"

			stats, err = db.StoreComplexes(ctx, "RUN1", []parse.Complex{rec})
			So(err, ShouldBeNil)
			So(stats.Updated, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.Complexes, ShouldEqual, 1)

			c, err := db.GetComplex(ctx, "SAM001", "RUN1")
			So(err, ShouldBeNil)
			So(c.Complex, ShouldEqual, "NTM")
			So(*c.MtbcProp, ShouldEqual, 0.98)
		})
	})
}

func TestSpecies(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with a library", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		frac := 0.9
		rec := parse.SpeciesSet{
			SampleID: "SAM001",
			Abundances: []parse.SpeciesAbundance{
				{TaxonomyLevel: "S", Name: "Mycobacterium tuberculosis", FractionTotalReads: &frac},
				{TaxonomyLevel: "S", Name: "Mycobacterium bovis"},
			},
		}

		Convey("a breakdown inserts one row per position", func() {
			stats, err := db.StoreSpecies(ctx, "RUN1", []parse.SpeciesSet{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.Species, ShouldEqual, 2)

			Convey("and a same-sized reload overwrites each position in place", func() {
				rec.Abundances[1].Name = "Mycobacterium africanum"

				stats, err := db.StoreSpecies(ctx, "RUN1", []parse.SpeciesSet{rec})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				species, err := db.GetSpecies(ctx, "SAM001", "RUN1")
				So(err, ShouldBeNil)
				So(len(species), ShouldEqual, 2)
				So(species[0].SpeciesName, ShouldEqual, "Mycobacterium tuberculosis")
				So(*species[0].FractionTotalReads, ShouldEqual, 0.9)
				So(species[1].Position, ShouldEqual, 1)
				So(species[1].SpeciesName, ShouldEqual, "Mycobacterium africanum")

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Species, ShouldEqual, 2)
			})

			Convey("but a differently sized reload is rejected outright", func() {
				rec.Abundances = rec.Abundances[:1]

				stats, err := db.StoreSpecies(ctx, "RUN1", []parse.SpeciesSet{rec})
				So(err, ShouldNotBeNil)
				So(stats.Failed, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Species, ShouldEqual, 2)
			})
		})
	})
}

func TestAmrReports(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with a library", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		freq := 0.95
		rec := parse.AmrReport{
			SampleID:  "SAM001",
			Date:      date(2022, 5, 6),
			DrType:    "MDR",
			DBVersion: "tbdb-2022",
			Mutations: []parse.AmrMutation{
				{Gene: "rpoB", NucleotideChange: "c.1349C>T", Freq: &freq,
					Drugs: []string{"rifampicin"}},
				{Gene: "katG", NucleotideChange: "c.944G>C",
					Drugs: []string{"isoniazid"}},
			},
		}

		Convey("a report stores one summary and its mutation rows", func() {
			stats, err := db.StoreAmrReports(ctx, "RUN1", []parse.AmrReport{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.AmrProfiles, ShouldEqual, 1)
			So(info.DrugMutationProfiles, ShouldEqual, 2)

			mutations, err := db.GetDrugMutations(ctx, "SAM001", "RUN1")
			So(err, ShouldBeNil)
			So(len(mutations), ShouldEqual, 2)
			So(mutations[0].Drug, ShouldEqual, "rifampicin")
			So(mutations[0].Mutation, ShouldEqual, "rpoB_c.1349C>T")
			So(*mutations[0].AlleleFreq, ShouldEqual, 0.95)

			Convey("and reloading overwrites the summary but appends mutations", func() {
				rec.DrType = "XDR"

				stats, err := db.StoreAmrReports(ctx, "RUN1", []parse.AmrReport{rec})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.AmrProfiles, ShouldEqual, 1)
				So(info.DrugMutationProfiles, ShouldEqual, 4)

				a, err := db.GetAmrProfile(ctx, "SAM001", "RUN1")
				So(err, ShouldBeNil)
				So(a.DrType, ShouldEqual, "XDR")
				So(a.TbprofilerVersion, ShouldEqual, "tbdb-2022")
			})

			Convey("and the drug reference rows are not duplicated", func() {
				_, err := db.StoreAmrReports(ctx, "RUN1", []parse.AmrReport{rec})
				So(err, ShouldBeNil)

				var drugs int

				err = db.Handle().QueryRow("SELECT COUNT(*) FROM drug").Scan(&drugs)
				So(err, ShouldBeNil)
				So(drugs, ShouldEqual, 2)
			})
		})
	})
}

func TestSnpits(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with a library", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		pct := 99.2
		rec := parse.Snpit{
			SampleID: "SAM001",
			Species:  "M. tuberculosis",
			Lineage:  "Lineage 4",
			Name:     "Euro-American",
			Percent:  &pct,
		}

		Convey("lineage calls are one per library, overwritten on reload", func() {
			stats, err := db.StoreSnpits(ctx, "RUN1", []parse.Snpit{rec})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			rec.Lineage = "Lineage 2"

			stats, err = db.StoreSnpits(ctx, "RUN1", []parse.Snpit{rec})
			So(err, ShouldBeNil)
			So(stats.Updated, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.Snpits, ShouldEqual, 1)

			n, err := db.GetSnpit(ctx, "SAM001", "RUN1")
			So(err, ShouldBeNil)
			So(n.Lineage, ShouldEqual, "Lineage 2")
			So(*n.Percent, ShouldEqual, 99.2)
		})

		Convey("a call for an unknown run is skipped and reported", func() {
			stats, err := db.StoreSnpits(ctx, "RUN9", []parse.Snpit{rec})
			So(err, ShouldBeNil)
			So(stats.Skipped, ShouldEqual, 1)

			_, err = db.GetSnpit(ctx, "SAM001", "RUN9")
			So(err, ShouldWrap, warehouse.ErrNotFound)
		})
	})
}
