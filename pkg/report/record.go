/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: record.go
Description: The report record: a flat mapping of every field the report templates may
reference, assembled once from the metadata, fuzzer statistics, coverage and task path
fragments. Assembly refuses conflicting duplicates and incomplete records.
*/

package report

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/kleascm/fuzz-report/pkg/failure"
)

// RequiredFields lists every field of a complete report record
var RequiredFields = []string{
	"firecracker_version",
	"firecracker_hash",
	"rustc_version",
	"afl_version",
	"host_info",
	"path",
	"fuzz_target",
	"profile",
	"target",
	"cores",
	"start_time",
	"execs_done",
	"cycles_done",
	"stability",
	"unique_hangs",
	"unique_crashes",
	"coverage",
}

// Timestamp is a local wall-clock time rendered without a zone
type Timestamp struct {
	time.Time
}

func (t Timestamp) String() string {
	return t.Format("2006-01-02 15:04:05")
}

// MarshalJSON encodes the timestamp in the same form it is rendered
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Record is an assembled report
type Record map[string]interface{}

// Fragment contributes fields to a record
type Fragment interface {
	Fields() map[string]interface{}
}

// Fields is a Fragment made of literal values
type Fields map[string]interface{}

func (f Fields) Fields() map[string]interface{} {
	return f
}

// PathFragment contributes the task directory the report is about
func PathFragment(taskDir string) Fragment {
	return Fields{"path": taskDir}
}

// CoverageFragment contributes the formatted coverage percentage
func CoverageFragment(formatted string) Fragment {
	return Fields{"coverage": formatted}
}

// Assemble merges fragments into one record. A key contributed twice with a
// different value is an error, as is a record missing any RequiredFields.
func Assemble(fragments ...Fragment) (Record, error) {
	record := make(Record)
	origin := make(map[string]int)

	for i, fragment := range fragments {
		for key, value := range fragment.Fields() {
			if t, ok := value.(time.Time); ok {
				value = Timestamp{t}
			}
			if existing, ok := record[key]; ok && !reflect.DeepEqual(existing, value) {
				return nil, failure.New(failure.KindInternal, key,
					"fragment %d sets %v, fragment %d already set %v", i, value, origin[key], existing)
			}
			record[key] = value
			origin[key] = i
		}
	}

	if missing := record.Missing(); len(missing) > 0 {
		return nil, failure.New(failure.KindMissingKey, "report",
			"record is missing %s", strings.Join(missing, ", "))
	}

	return record, nil
}

// Missing returns the required fields absent from the record
func (r Record) Missing() []string {
	var missing []string
	for _, key := range RequiredFields {
		if _, ok := r[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Clone returns a shallow copy of the record
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// String returns the record as sorted key=value lines
func (r Record) String() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v\n", k, r[k])
	}
	return b.String()
}
