package jobs

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	_ "github.com/JonMunkholm/sheetnorm/internal/core/profiles"
)

func TestParse(t *testing.T) {
	job, err := Parse([]byte(`
defaults:
  tier: semi-strict
  output_dir: out
  format: json
sheets:
  - path: VB.xlsx
    sheet: measured
    domain: measured
  - path: /data/VB_sampling.csv
    domain: sampling
    tier: strict
    variant: github
    output: custom.csv
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	job.dir = "/jobs"

	tasks := job.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks", len(tasks))
	}

	first := tasks[0]
	if first.Path != "/jobs/VB.xlsx" || first.Sheet != "measured" {
		t.Errorf("first task = %+v", first)
	}
	if first.Profile != (core.ProfileKey{Domain: core.DomainMeasured, Tier: core.TierSemiStrict}) {
		t.Errorf("first profile = %v", first.Profile)
	}
	if first.Output != "/jobs/out/VB.measured.measured.semistrict.json" {
		t.Errorf("first output = %q", first.Output)
	}
	if first.Name() != "VB.xlsx#measured" {
		t.Errorf("Name() = %q", first.Name())
	}

	second := tasks[1]
	if second.Path != "/data/VB_sampling.csv" || second.Output != "/jobs/custom.csv" {
		t.Errorf("second task = %+v", second)
	}
	if second.Profile.Tier != core.TierStrict || second.Profile.Variant != core.VariantGithub {
		t.Errorf("second profile = %v", second.Profile)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"no sheets", "defaults:\n  tier: strict\n", []string{"no sheets"}},
		{"unknown key", "sheets:\n  - path: a.csv\n    domian: sampling\n", []string{"domian"}},
		{
			"several problems",
			"defaults:\n  tier: loose\n  format: xml\nsheets:\n  - domain: sampling\n  - path: b.csv\n",
			[]string{`defaults: unknown tier "loose"`, `format "xml" must be one of csv or json`, "sheet 1: path is required", "sheet 2: domain is required"},
		},
		{"negative workers", "defaults:\n  workers: -2\nsheets:\n  - path: a.csv\n    domain: measured\n", []string{"defaults: workers must be at least 0"}},
		{"sheet tier", "sheets:\n  - path: a.csv\n    domain: measured\n  - path: b.csv\n    domain: measured\n    tier: strictest\n", []string{`sheet 2: unknown tier "strictest"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			for _, w := range tt.want {
				if !strings.Contains(err.Error(), w) {
					t.Errorf("error %q should mention %q", err, w)
				}
			}
		})
	}
}

func TestRunAndWrite(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "measured.csv")
	csvData := "source_material_id,ph,conduc,chlorophyll,nitrate\n" +
		"EMOBON_VB_Wa_1,\"8,1\",\"36,356.62\",could not retrieve CTD,\n" +
		"EMOBON_VB_Wa_2,8.2,,1.5,0.4\n" +
		",7.9,,,\n" +
		"EMOBON_VB_Wa_4,8.0,,,lots\n"
	if err := os.WriteFile(in, []byte(csvData), 0o644); err != nil {
		t.Fatal(err)
	}

	task := Task{
		Path:    in,
		Profile: core.ProfileKey{Domain: core.DomainMeasured, Tier: core.TierLenient},
		Output:  filepath.Join(dir, "out", "measured.norm.csv"),
		Format:  FormatCSV,
	}

	o, err := Run(context.Background(), task)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if o.Result.Valid != 2 || o.Result.Invalid != 2 {
		t.Fatalf("Valid/Invalid = %d/%d, want 2/2", o.Result.Valid, o.Result.Invalid)
	}

	problems := o.Problems()
	if len(problems) != 2 {
		t.Fatalf("Problems() = %+v", problems)
	}
	if problems[0].Line != 4 || problems[0].Field != "source_mat_id" {
		t.Errorf("first problem = %+v", problems[0])
	}
	if problems[1].Line != 5 || problems[1].Field != "nitrate" {
		t.Errorf("second problem = %+v", problems[1])
	}

	if err := WriteOutput(o); err != nil {
		t.Fatalf("WriteOutput() error = %v", err)
	}
	f, err := os.Open(task.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("output has %d rows, want header + 2", len(rows))
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[h] = i
	}
	if got := rows[1][col["conduc"]]; got != "36356.62" {
		t.Errorf("conduc = %q", got)
	}
	if got := rows[1][col["ph"]]; got != "8.1" {
		t.Errorf("ph = %q", got)
	}
	if got := rows[1][col["chlorophyll"]]; got != "" {
		t.Errorf("chlorophyll = %q", got)
	}
}

func TestRun_UnknownProfile(t *testing.T) {
	_, err := Run(context.Background(), Task{Path: "x.csv", Profile: core.ProfileKey{Domain: "plankton", Tier: core.TierStrict}})
	if err == nil || !strings.Contains(err.Error(), "unknown profile") {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWrite_JSON(t *testing.T) {
	p, _ := core.Lookup(core.DomainObservatory, core.TierLenient)
	rec, err := core.Validate(p, core.RawRecord{"obs_id": "VB", "loc_loc_mrgid": 3293, "latitude": 51})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, FormatJSON, p, []core.ValidatedRecord{rec}); err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0]["obs_id"] != "VB" || out[0]["latitude"] != 51.0 || out[0]["loc_loc_mrgid"] != 3293.0 {
		t.Errorf("json = %s", buf.String())
	}

	if err := Write(&buf, "xml", p, nil); err == nil {
		t.Error("Write(xml) expected error")
	}
}
