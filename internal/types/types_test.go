package types

import (
	"encoding/json"
	"testing"
)

func TestStudentPatchDecode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want StudentPatch
	}{
		{"absent", `{}`, StudentPatch{}},
		{"value", `{"fullName":"A"}`, StudentPatch{FullName: Some("A")}},
		{"explicit null", `{"fullName":null,"isActive":null}`,
			StudentPatch{FullName: Null[string](), IsActive: Null[bool]()}},
		{"false is a value", `{"isActive":false}`, StudentPatch{IsActive: Some(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StudentPatch
			if err := json.Unmarshal([]byte(tt.body), &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestStudentPatchApply(t *testing.T) {
	s := Student{ID: "1", FullName: "A", StudentCode: "ST00001", IsActive: true}

	if got := (StudentPatch{}).Apply(s); got != s {
		t.Errorf("empty patch changed record: %+v", got)
	}

	got := StudentPatch{FullName: Some("B"), IsActive: Some(false)}.Apply(s)
	want := Student{ID: "1", FullName: "B", StudentCode: "ST00001", IsActive: false}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if !(StudentPatch{}).Empty() || (StudentPatch{FullName: Null[string]()}).Empty() {
		t.Error("Empty() must treat a supplied null as present")
	}
}

func TestStudentInputDefaults(t *testing.T) {
	if !(StudentInput{FullName: "A", StudentCode: "ST00001"}).ToStudent().IsActive {
		t.Error("omitted isActive should default to true")
	}
	off := false
	if (StudentInput{IsActive: &off}).ToStudent().IsActive {
		t.Error("explicit false was not kept")
	}
}
