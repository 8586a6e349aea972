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
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/BCCDC-PHL/tb-db/parse"
	"github.com/BCCDC-PHL/tb-db/warehouse"
)

func newTestDB(t *testing.T) *warehouse.DB {
	t.Helper()

	db, err := warehouse.Open(warehouse.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	if err := db.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	return db
}

func storeLibrary(t *testing.T, db *warehouse.DB, sampleID, runID string) {
	t.Helper()

	stats, err := db.StoreLibraries(context.Background(), []parse.Library{
		{SampleID: sampleID, SequencingRunID: runID},
	})
	if err != nil {
		t.Fatal(err)
	}

	if stats.Created+stats.Updated != 1 {
		t.Fatalf("library for %s/%s not stored", sampleID, runID)
	}
}

func date(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	return &d
}

func TestSamples(t *testing.T) {
	ctx := context.Background()

	Convey("Given a warehouse database", t, func() {
		db := newTestDB(t)

		Convey("you can store a sample and get it back", func() {
			stats, err := db.StoreSamples(ctx, []parse.Sample{
				{SampleID: "SAM001", CollectionDate: date(2021, 3, 4)},
			})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			s, err := db.GetSample(ctx, "SAM001")
			So(err, ShouldBeNil)
			So(s.SampleID, ShouldEqual, "SAM001")
			So(s.CollectionDate, ShouldNotBeNil)
			So(s.CollectionDate.Format(time.DateOnly), ShouldEqual, "2021-03-04")
			So(s.ValidUntil, ShouldBeNil)

			Convey("and re-storing the same record changes nothing", func() {
				stats, err := db.StoreSamples(ctx, []parse.Sample{
					{SampleID: "SAM001", CollectionDate: date(2021, 3, 4)},
				})
				So(err, ShouldBeNil)
				So(stats.Unchanged, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Samples, ShouldEqual, 1)
				So(info.SampleVersions, ShouldEqual, 1)
			})

			Convey("and a changed collection date supersedes the old version", func() {
				stats, err := db.StoreSamples(ctx, []parse.Sample{
					{SampleID: "SAM001", CollectionDate: date(2022, 1, 1)},
				})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Samples, ShouldEqual, 1)
				So(info.SampleVersions, ShouldEqual, 2)

				s, err := db.GetSample(ctx, "SAM001")
				So(err, ShouldBeNil)
				So(s.CollectionDate.Format(time.DateOnly), ShouldEqual, "2022-01-01")
				So(s.ValidUntil, ShouldBeNil)

				var superseded int

				err = db.Handle().QueryRow("SELECT COUNT(*) FROM sample "+
					"WHERE sample_id = ? AND valid_until IS NOT NULL", "SAM001").Scan(&superseded)
				So(err, ShouldBeNil)
				So(superseded, ShouldEqual, 1)
			})
		})

		Convey("a record with a blank sample_id is skipped, not stored", func() {
			stats, err := db.StoreSamples(ctx, []parse.Sample{
				{SampleID: "  "},
				{SampleID: "SAM002"},
			})
			So(err, ShouldBeNil)
			So(stats.Skipped, ShouldEqual, 1)
			So(stats.Created, ShouldEqual, 1)
		})

		Convey("a sample created lazily by an assay load gets enriched later", func() {
			storeLibrary(t, db, "SAM003", "RUN1")

			s, err := db.GetSample(ctx, "SAM003")
			So(err, ShouldBeNil)
			So(s.CollectionDate, ShouldBeNil)

			stats, err := db.StoreSamples(ctx, []parse.Sample{
				{SampleID: "SAM003", CollectionDate: date(2021, 6, 7)},
			})
			So(err, ShouldBeNil)
			So(stats.Updated, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.Samples, ShouldEqual, 1)

			Convey("and its library follows the current sample version", func() {
				var n int

				err := db.Handle().QueryRow("SELECT COUNT(*) FROM library l " +
					"JOIN sample s ON s.id = l.sample_id " +
					"WHERE s.valid_until IS NULL").Scan(&n)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestLibraries(t *testing.T) {
	ctx := context.Background()

	Convey("Given a warehouse database", t, func() {
		db := newTestDB(t)

		depth := 55.5
		qc := parse.Library{
			SampleID:               "SAM001",
			SequencingRunID:        "RUN1",
			LibraryID:              "LIB-1",
			EstimatedDepthCoverage: &depth,
		}

		Convey("storing QC for an unseen sample creates sample and library", func() {
			stats, err := db.StoreLibraries(ctx, []parse.Library{qc})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.Samples, ShouldEqual, 1)
			So(info.Libraries, ShouldEqual, 1)

			Convey("and reloading overwrites the metrics in place", func() {
				newDepth := 60.1
				qc.EstimatedDepthCoverage = &newDepth

				stats, err := db.StoreLibraries(ctx, []parse.Library{qc})
				So(err, ShouldBeNil)
				So(stats.Updated, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Libraries, ShouldEqual, 1)

				var stored float64

				err = db.Handle().QueryRow("SELECT estimated_depth_coverage FROM library").Scan(&stored)
				So(err, ShouldBeNil)
				So(stored, ShouldEqual, 60.1)
			})

			Convey("and a second run of the same sample gets its own library", func() {
				qc2 := qc
				qc2.SequencingRunID = "RUN2"

				stats, err := db.StoreLibraries(ctx, []parse.Library{qc2})
				So(err, ShouldBeNil)
				So(stats.Created, ShouldEqual, 1)

				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.Samples, ShouldEqual, 1)
				So(info.Libraries, ShouldEqual, 2)
			})
		})
	})
}

func TestDeleteSample(t *testing.T) {
	ctx := context.Background()

	Convey("Given a sample with libraries, assay results and memberships", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")

		_, err := db.StoreCgmlstProfiles(ctx, "RUN1", nil, []parse.CgmlstProfile{
			{SampleID: "SAM001", Profile: map[string]string{"locus_1": "1"}},
		})
		So(err, ShouldBeNil)

		_, err = db.StoreCgmlstClusters(ctx, []parse.ClusterAssignment{
			{SampleID: "SAM001", Cluster: "BC300"},
		})
		So(err, ShouldBeNil)

		Convey("deleting the sample cascades to everything attached", func() {
			n, err := db.DeleteSample(ctx, "SAM001")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			info, err := db.Info(ctx)
			So(err, ShouldBeNil)
			So(info.SampleVersions, ShouldEqual, 0)
			So(info.Libraries, ShouldEqual, 0)
			So(info.CgmlstProfiles, ShouldEqual, 0)

			var members int

			err = db.Handle().QueryRow("SELECT COUNT(*) FROM cgmlst_cluster_member").Scan(&members)
			So(err, ShouldBeNil)
			So(members, ShouldEqual, 0)

			Convey("but the cluster reference row itself survives", func() {
				info, err := db.Info(ctx)
				So(err, ShouldBeNil)
				So(info.CgmlstClusters, ShouldEqual, 1)
			})
		})

		Convey("deleting an unknown sample removes nothing", func() {
			n, err := db.DeleteSample(ctx, "NOPE")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})
	})
}

func TestClusters(t *testing.T) {
	ctx := context.Background()

	Convey("Given samples with libraries", t, func() {
		db := newTestDB(t)

		storeLibrary(t, db, "SAM001", "RUN1")
		storeLibrary(t, db, "SAM001", "RUN2")

		Convey("a cgMLST cluster assignment attaches every library", func() {
			stats, err := db.StoreCgmlstClusters(ctx, []parse.ClusterAssignment{
				{SampleID: "SAM001", Cluster: "BC300"},
			})
			So(err, ShouldBeNil)
			So(stats.Created, ShouldEqual, 1)

			var members int

			err = db.Handle().QueryRow("SELECT COUNT(*) FROM cgmlst_cluster_member").Scan(&members)
			So(err, ShouldBeNil)
			So(members, ShouldEqual, 2)

			Convey("and reloading the assignment does not duplicate edges", func() {
				_, err := db.StoreCgmlstClusters(ctx, []parse.ClusterAssignment{
					{SampleID: "SAM001", Cluster: "BC300"},
				})
				So(err, ShouldBeNil)

				err = db.Handle().QueryRow("SELECT COUNT(*) FROM cgmlst_cluster_member").Scan(&members)
				So(err, ShouldBeNil)
				So(members, ShouldEqual, 2)
			})

			Convey("and cluster codes of both kinds round-trip by sample id", func() {
				_, err := db.StoreMiruProfiles(ctx, []parse.MiruProfile{
					{SampleID: "SAM001", Cluster: "BC278",
						ProfileByPosition: map[int]string{154: "2"}},
				})
				So(err, ShouldBeNil)

				codes, err := db.ClusterCodesBySample(ctx, "SAM001")
				So(err, ShouldBeNil)
				So(codes.Cgmlst, ShouldResemble, []string{"BC300"})
				So(codes.Miru, ShouldResemble, []string{"BC278"})
			})
		})

		Convey("an assignment for a sample with no libraries is skipped", func() {
			stats, err := db.StoreCgmlstClusters(ctx, []parse.ClusterAssignment{
				{SampleID: "SAM999", Cluster: "BC300"},
			})
			So(err, ShouldBeNil)
			So(stats.Skipped, ShouldEqual, 1)
			So(stats.Created, ShouldEqual, 0)

			Convey("but the sample row was still lazily created", func() {
				_, err := db.GetSample(ctx, "SAM999")
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestLoadAudit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a warehouse database", t, func() {
		db := newTestDB(t)

		Convey("a load run is recorded with its outcome counts", func() {
			l, err := db.BeginLoad(ctx, "samples", "/data/samples.csv")
			So(err, ShouldBeNil)
			So(l.ID, ShouldBeGreaterThan, 0)
			So(l.UUID.String(), ShouldNotBeBlank)

			err = db.Finish(ctx, l, warehouse.LoadStats{Created: 3, Unchanged: 2, Skipped: 1})
			So(err, ShouldBeNil)

			var (
				kind                        string
				created, unchanged, skipped int
				finishedAtNonEmpty          bool
			)

			err = db.Handle().QueryRow("SELECT kind, num_created, num_unchanged, "+
				"num_skipped, finished_at IS NOT NULL FROM load WHERE id = ?", l.ID).
				Scan(&kind, &created, &unchanged, &skipped, &finishedAtNonEmpty)
			So(err, ShouldBeNil)
			So(kind, ShouldEqual, "samples")
			So(created, ShouldEqual, 3)
			So(unchanged, ShouldEqual, 2)
			So(skipped, ShouldEqual, 1)
			So(finishedAtNonEmpty, ShouldBeTrue)
		})
	})
}
