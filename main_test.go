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

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const app = "tb-db_test"

func TestMain(m *testing.M) {
	d1 := buildSelf()
	if d1 == nil {
		return
	}

	defer os.Exit(m.Run())
	defer d1()
}

func buildSelf() func() {
	cmd := exec.Command(
		"go", "build",
		"-ldflags=-X github.com/BCCDC-PHL/tb-db/cmd.Version=TESTVERSION",
		"-o", app,
	)

	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		failMainTest(err.Error())

		return nil
	}

	return func() {
		os.Remove(app)
	}
}

func failMainTest(err string) {
	fmt.Println(err) //nolint:forbidigo
}

func runTBDB(env map[string]string, args ...string) (string, string, error) {
	var stdout, stderr strings.Builder

	cmd := exec.CommandContext(context.Background(), "./"+app, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = os.Environ()

	for key, val := range env {
		cmd.Env = append(cmd.Env, key+"="+val)
	}

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	Convey("tb-db prints the correct version", t, func() {
		output, stderr, err := runTBDB(nil, "version")
		So(err, ShouldBeNil)
		So(strings.TrimSpace(output), ShouldEqual, "TESTVERSION")
		So(stderr, ShouldBeBlank)
	})
}

func TestLoadWorkflow(t *testing.T) {
	Convey("Given an initialised database", t, func() {
		tmp := t.TempDir()

		env := map[string]string{
			"TBDB_DRIVER": "sqlite3",
			"TBDB_DSN":    filepath.Join(tmp, "tb.db"),
		}

		_, stderr, err := runTBDB(env, "init")
		So(err, ShouldBeNil)
		So(stderr, ShouldContainSubstring, "schema created")

		samplesCSV := filepath.Join(tmp, "samples.csv")
		So(os.WriteFile(samplesCSV, []byte(
			"sample_id,collection_date\n"+
				"SAM001,2021-03-15\n"+
				"SAM002,2021-04-02\n"), 0600), ShouldBeNil)

		qcCSV := filepath.Join(tmp, "qc.csv")
		So(os.WriteFile(qcCSV, []byte(
			"sample_id,estimated_depth_coverage,total_bases\n"+
				"SAM001,101.5,450000000\n"+
				"SAM002,88.2,390000000\n"), 0600), ShouldBeNil)

		locationsCSV := filepath.Join(tmp, "locations.csv")
		So(os.WriteFile(locationsCSV, []byte(
			"sample_id,fastq_path\n"+
				"SAM001,/data/fastq/RUN42/SAM001_R1.fastq.gz\n"+
				"SAM002,/data/fastq/RUN42/SAM002_R1.fastq.gz\n"), 0600), ShouldBeNil)

		clustersCSV := filepath.Join(tmp, "clusters.csv")
		So(os.WriteFile(clustersCSV, []byte(
			"sample_id,clusters_cgmlst\n"+
				"SAM001,BC300\n"+
				"SAM002,BC300\n"), 0600), ShouldBeNil)

		Convey("you can load samples, libraries and clusters and query them", func() {
			_, _, err := runTBDB(env, "load", "samples", samplesCSV)
			So(err, ShouldBeNil)

			_, _, err = runTBDB(env, "load", "library",
				"--qc", qcCSV, "--locations", locationsCSV)
			So(err, ShouldBeNil)

			_, _, err = runTBDB(env, "load", "cgmlst-cluster", clustersCSV)
			So(err, ShouldBeNil)

			output, _, err := runTBDB(env, "info")
			So(err, ShouldBeNil)
			So(output, ShouldContainSubstring, "samples (current)")
			So(output, ShouldContainSubstring, "libraries")
			So(output, ShouldContainSubstring, "cgMLST clusters")

			output, _, err = runTBDB(env, "clusters", "SAM001")
			So(err, ShouldBeNil)
			So(output, ShouldContainSubstring, "cgMLST: BC300")
			So(output, ShouldContainSubstring, "MIRU:")
		})

		Convey("a record with no sample id is skipped without failing the load", func() {
			badCSV := filepath.Join(tmp, "bad.csv")
			So(os.WriteFile(badCSV, []byte("sample_id,collection_date\n,2021-03-15\n"), 0600),
				ShouldBeNil)

			_, _, err := runTBDB(env, "load", "samples", badCSV)
			So(err, ShouldBeNil)

			output, _, err := runTBDB(env, "info")
			So(err, ShouldBeNil)
			So(output, ShouldContainSubstring, "loads")
		})
	})
}
