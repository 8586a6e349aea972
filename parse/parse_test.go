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

package parse_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/BCCDC-PHL/tb-db/parse"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	return path
}

func writeGzInput(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	gz := pgzip.NewWriter(f)

	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}

	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSamples(t *testing.T) {
	Convey("Given a samples CSV", t, func() {
		path := writeInput(t, "samples.csv",
			"sample_id,accession,collection_date\n"+
				"SAM001,ACC-1,2021-03-15\n"+
				"SAM002,,\n")

		Convey("you get one typed record per row", func() {
			samples, err := parse.Samples(path)
			So(err, ShouldBeNil)
			So(samples, ShouldHaveLength, 2)
			So(samples[0].SampleID, ShouldEqual, "SAM001")
			So(samples[0].Accession, ShouldEqual, "ACC-1")
			So(*samples[0].CollectionDate, ShouldEqual,
				time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC))
			So(samples[1].CollectionDate, ShouldBeNil)
		})
	})

	Convey("A samples CSV without a sample_id column is rejected", t, func() {
		path := writeInput(t, "samples.csv", "accession\nACC-1\n")

		_, err := parse.Samples(path)
		So(err, ShouldWrap, parse.ErrMissingColumn)
	})

	Convey("An unparseable collection date is rejected", t, func() {
		path := writeInput(t, "samples.csv",
			"sample_id,collection_date\nSAM001,15/03/2021\n")

		_, err := parse.Samples(path)
		So(err, ShouldWrap, parse.ErrBadDate)
	})

	Convey("Gzipped input is read transparently", t, func() {
		path := writeGzInput(t, "samples.csv.gz",
			"sample_id,collection_date\nSAM001,2021-03-15\n")

		samples, err := parse.Samples(path)
		So(err, ShouldBeNil)
		So(samples, ShouldHaveLength, 1)
		So(samples[0].SampleID, ShouldEqual, "SAM001")
	})
}

func TestLibraries(t *testing.T) {
	Convey("Given a QC CSV and a run-locations CSV", t, func() {
		qc := writeInput(t, "qc.csv",
			"sample_id,library_id,most_abundant_species_name,"+
				"most_abundant_species_fraction_total_reads,estimated_genome_size_bp,"+
				"estimated_depth_coverage,total_bases,average_base_quality,"+
				"percent_bases_above_q30,percent_gc\n"+
				"SAM001,SAM001-L1,Mycobacterium tuberculosis,0.97,4.4e6,"+
				"101.5,450000000,35.2,92.1,65.4\n")

		locations := writeInput(t, "locations.csv",
			"sample_id,fastq_path\n"+
				"SAM001,/data/fastq/RUN42/SAM001_R1.fastq.gz\n")

		Convey("QC rows are joined with the run derived from the fastq path", func() {
			libs, err := parse.Libraries(qc, locations)
			So(err, ShouldBeNil)
			So(libs, ShouldHaveLength, 1)
			So(libs[0].SampleID, ShouldEqual, "SAM001")
			So(libs[0].SequencingRunID, ShouldEqual, "RUN42")
			So(libs[0].LibraryID, ShouldEqual, "SAM001-L1")
			So(libs[0].MostAbundantSpeciesName, ShouldEqual, "Mycobacterium tuberculosis")
			So(*libs[0].MostAbundantSpeciesFractionTotalReads, ShouldEqual, 0.97)
			So(*libs[0].EstimatedGenomeSizeBp, ShouldEqual, 4400000)
			So(*libs[0].EstimatedDepthCoverage, ShouldEqual, 101.5)
			So(*libs[0].TotalBases, ShouldEqual, 450000000)
		})

		Convey("a QC row with no run location is an error", func() {
			locations := writeInput(t, "locations.csv",
				"sample_id,fastq_path\nSAM999,/data/fastq/RUN42/SAM999_R1.fastq.gz\n")

			_, err := parse.Libraries(qc, locations)
			So(err, ShouldWrap, parse.ErrNoRunLocation)
		})
	})
}

func TestCgmlstProfiles(t *testing.T) {
	Convey("Given a cgMLST allele CSV", t, func() {
		path := writeInput(t, "cgmlst.csv",
			"sample_id,locus_1,locus_2,locus_3,locus_4\n"+
				"SAM001,1,4,-,2\n")

		Convey("every non-id column becomes an allele call", func() {
			profiles, err := parse.CgmlstProfiles(path, parse.DefaultUncalledMarker)
			So(err, ShouldBeNil)
			So(profiles, ShouldHaveLength, 1)
			So(profiles[0].SampleID, ShouldEqual, "SAM001")
			So(profiles[0].Profile, ShouldResemble, map[string]string{
				"locus_1": "1", "locus_2": "4", "locus_3": "-", "locus_4": "2",
			})

			Convey("with percent_called over the loci that differ from the marker", func() {
				So(*profiles[0].PercentCalled, ShouldEqual, 75.0)
			})
		})

		Convey("a different uncalled marker changes what counts as called", func() {
			profiles, err := parse.CgmlstProfiles(path, "0")
			So(err, ShouldBeNil)
			So(*profiles[0].PercentCalled, ShouldEqual, 100.0)
		})
	})

	Convey("A profile with no loci has no percent_called", t, func() {
		path := writeInput(t, "cgmlst.csv", "sample_id\nSAM001\n")

		profiles, err := parse.CgmlstProfiles(path, parse.DefaultUncalledMarker)
		So(err, ShouldBeNil)
		So(profiles[0].PercentCalled, ShouldBeNil)
	})
}

func TestMiruProfiles(t *testing.T) {
	Convey("Given a historical MIRU CSV", t, func() {
		path := writeInput(t, "miru.csv",
			"KEY,ACC#,Year Tested,Collection Date,MIRU 02,424,MIRU Pattern,Cluster\n"+
				"SAM001,ACC-9,2009 4th QTR,1997-September-26,2,-,223125,BC278\n")

		Convey("headers are translated to VNTR genomic positions", func() {
			profiles, err := parse.MiruProfiles(path)
			So(err, ShouldBeNil)
			So(profiles, ShouldHaveLength, 1)
			So(profiles[0].SampleID, ShouldEqual, "SAM001")
			So(profiles[0].Accession, ShouldEqual, "ACC-9")
			So(profiles[0].ProfileByPosition, ShouldResemble, map[int]string{
				154: "2", 424: "-",
			})
			So(profiles[0].MiruPattern, ShouldEqual, "223125")
			So(profiles[0].Cluster, ShouldEqual, "BC278")
			So(*profiles[0].PercentCalled, ShouldEqual, 50.0)

			Convey("the quarter of test is normalised", func() {
				So(profiles[0].QuarterTested, ShouldEqual, "2009-Q4")
				So(profiles[0].YearTested, ShouldEqual, "2009")
			})

			Convey("and the month-name collection date becomes a real date", func() {
				So(*profiles[0].CollectionDate, ShouldEqual,
					time.Date(1997, 9, 26, 0, 0, 0, 0, time.UTC))
			})
		})
	})

	Convey("A MIRU row without a key is rejected", t, func() {
		path := writeInput(t, "miru.csv", "ACC#,MIRU 02\nACC-9,2\n")

		_, err := parse.MiruProfiles(path)
		So(err, ShouldWrap, parse.ErrMissingColumn)
	})

	Convey("An unparseable quarter of test is rejected", t, func() {
		path := writeInput(t, "miru.csv",
			"KEY,Year Tested\nSAM001,2009 late QTR\n")

		_, err := parse.MiruProfiles(path)
		So(err, ShouldWrap, parse.ErrBadQuarter)
	})
}

func TestComplexes(t *testing.T) {
	Convey("Given a complex-call CSV", t, func() {
		path := writeInput(t, "complex.csv",
			"sample_id,mtbc_prop,ntm_prop,nonmycobacterium_prop,unclassified_prop,"+
				"complex,reason,flag\n"+
				"SAM001,0.98,0.01,0.005,0.005,MTBC,majority MTBC reads,\n")

		Convey("proportions and the call are carried through", func() {
			complexes, err := parse.Complexes(path)
			So(err, ShouldBeNil)
			So(complexes, ShouldHaveLength, 1)
			So(*complexes[0].MtbcProp, ShouldEqual, 0.98)
			So(*complexes[0].NtmProp, ShouldEqual, 0.01)
			So(complexes[0].Complex, ShouldEqual, "MTBC")
			So(complexes[0].Reason, ShouldEqual, "majority MTBC reads")
			So(complexes[0].Flag, ShouldEqual, "")
		})
	})
}

func TestSpeciesSets(t *testing.T) {
	Convey("Given an indexed species abundance CSV", t, func() {
		path := writeInput(t, "species.csv",
			"sample_id,"+
				"taxonomy_level_1,species_name_1,ncbi_taxonomy_id_1,"+
				"fraction_total_reads_1,num_assigned_reads_1,"+
				"taxonomy_level_2,species_name_2,ncbi_taxonomy_id_2,"+
				"fraction_total_reads_2,num_assigned_reads_2,"+
				"taxonomy_level_3,species_name_3,ncbi_taxonomy_id_3,"+
				"fraction_total_reads_3,num_assigned_reads_3\n"+
				"SAM001,S,Mycobacterium tuberculosis,1773,0.95,950000,"+
				"S,Mycobacterium bovis,1765,0.03,30000,"+
				",,,,\n")

		Convey("slots with no species name are dropped, preserving order", func() {
			sets, err := parse.SpeciesSets(path)
			So(err, ShouldBeNil)
			So(sets, ShouldHaveLength, 1)
			So(sets[0].SampleID, ShouldEqual, "SAM001")
			So(sets[0].Abundances, ShouldHaveLength, 2)
			So(sets[0].Abundances[0].Name, ShouldEqual, "Mycobacterium tuberculosis")
			So(sets[0].Abundances[0].NCBITaxonomyID, ShouldEqual, "1773")
			So(*sets[0].Abundances[0].FractionTotalReads, ShouldEqual, 0.95)
			So(*sets[0].Abundances[0].NumAssignedReads, ShouldEqual, 950000)
			So(sets[0].Abundances[1].Name, ShouldEqual, "Mycobacterium bovis")
		})
	})
}

func TestAmrReports(t *testing.T) {
	report := `{
		"id": "SAM001",
		"timestamp": "25-03-2022 10:30:00",
		"drtype": "MDR",
		"qc": {"median_coverage": 98.6},
		"db_version": "tbdb-2022",
		"dr_variants": [
			{
				"gene": "rpoB",
				"nucleotide_change": "c.1349C>T",
				"freq": 0.95,
				"drugs": [{"drug": "rifampicin"}]
			}
		]
	}`

	Convey("Given a single-object AMR report", t, func() {
		path := writeInput(t, "SAM001.json", report)

		Convey("the summary and its variants are decoded", func() {
			reports, err := parse.AmrReports(path)
			So(err, ShouldBeNil)
			So(reports, ShouldHaveLength, 1)
			So(reports[0].SampleID, ShouldEqual, "SAM001")
			So(*reports[0].Date, ShouldEqual,
				time.Date(2022, 3, 25, 10, 30, 0, 0, time.UTC))
			So(reports[0].DrType, ShouldEqual, "MDR")
			So(*reports[0].MedianDepth, ShouldEqual, 98)
			So(reports[0].DBVersion, ShouldEqual, "tbdb-2022")
			So(reports[0].Mutations, ShouldHaveLength, 1)
			So(reports[0].Mutations[0].Mutation(), ShouldEqual, "rpoB_c.1349C>T")
			So(reports[0].Mutations[0].Drugs, ShouldResemble, []string{"rifampicin"})
		})
	})

	Convey("An array of reports decodes to one record each", t, func() {
		path := writeInput(t, "reports.json", "["+report+"]")

		reports, err := parse.AmrReports(path)
		So(err, ShouldBeNil)
		So(reports, ShouldHaveLength, 1)
		So(reports[0].SampleID, ShouldEqual, "SAM001")
	})

	Convey("A report without an id takes its sample from the file name", t, func() {
		path := writeInput(t, "SAM777.json", `{"drtype": "Sensitive"}`)

		reports, err := parse.AmrReports(path)
		So(err, ShouldBeNil)
		So(reports[0].SampleID, ShouldEqual, "SAM777")
	})
}

func TestSnpits(t *testing.T) {
	Convey("Given a SNPit CSV", t, func() {
		path := writeInput(t, "snpit.csv",
			"Sample,Species,Lineage,Sublineage,Name,Percentage\n"+
				"SAM001,M. tuberculosis,Lineage 4,,Euro-American,99.2\n")

		Convey("lineage calls are carried through", func() {
			snpits, err := parse.Snpits(path)
			So(err, ShouldBeNil)
			So(snpits, ShouldHaveLength, 1)
			So(snpits[0].SampleID, ShouldEqual, "SAM001")
			So(snpits[0].Lineage, ShouldEqual, "Lineage 4")
			So(snpits[0].Name, ShouldEqual, "Euro-American")
			So(*snpits[0].Percent, ShouldEqual, 99.2)
		})
	})
}

func TestClusterAssignments(t *testing.T) {
	Convey("Given a cluster assignment CSV", t, func() {
		path := writeInput(t, "clusters.csv",
			"sample_id,clusters_cgmlst\nSAM001,BC300\nSAM002,BC300\n")

		Convey("each row pairs a sample with its cluster code", func() {
			assignments, err := parse.ClusterAssignments(path, parse.DefaultCgmlstClusterColumn)
			So(err, ShouldBeNil)
			So(assignments, ShouldHaveLength, 2)
			So(assignments[0], ShouldResemble,
				parse.ClusterAssignment{SampleID: "SAM001", Cluster: "BC300"})
		})

		Convey("a missing cluster column is an error naming the column", func() {
			_, err := parse.ClusterAssignments(path, "clusters_snp")
			So(err, ShouldWrap, parse.ErrMissingColumn)
		})
	})
}
