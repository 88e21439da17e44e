package registration_test

import (
	"encoding/json"
	"strings"
	"testing"

	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/registration"
)

func openAdd(t *testing.T) *registration.Wizard {
	t.Helper()
	w, err := registration.Open("wiz-1", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return w
}

func apply(t *testing.T, w *registration.Wizard, draft string) {
	t.Helper()
	if err := w.Apply([]byte(draft), nil); err != nil {
		t.Fatalf("Apply(%s): %v", draft, err)
	}
}

// TestOpen_AddModeDefaults tests the initial add-mode draft.
func TestOpen_AddModeDefaults(t *testing.T) {
	w := openAdd(t)
	if w.Mode != registration.ModeAdd || w.Step != registration.StepPersonal {
		t.Errorf("mode=%q step=%d", w.Mode, w.Step)
	}
	if w.Draft.MemberType != member.TypeNew {
		t.Errorf("member_type = %q, want NEW", w.Draft.MemberType)
	}
	if len(w.Draft.Children) != 0 {
		t.Errorf("children = %d, want 0", len(w.Draft.Children))
	}
	if _, err := registration.Open("", nil); err != registration.ErrEmptyWizardID {
		t.Errorf("Open(\"\") = %v", err)
	}
}

// TestNext_GatedByPersonalSchema tests that only step 1 blocks advancing.
func TestNext_GatedByPersonalSchema(t *testing.T) {
	w := openAdd(t)
	if w.Next() {
		t.Fatal("Next with empty name and phone should fail")
	}
	if w.Step != registration.StepPersonal {
		t.Errorf("step = %d, want 1", w.Step)
	}
	if _, ok := w.Errors["full_name"]; !ok {
		t.Error("missing full_name error")
	}
	if _, ok := w.Errors["phone"]; !ok {
		t.Error("missing phone error")
	}

	apply(t, w, `{"full_name":"Grace Wanjiku","phone":"0712345678"}`)
	if !w.Errors.Empty() {
		t.Errorf("errors should revalidate on change, got %v", w.Errors)
	}
	for want := registration.StepResidence; want <= registration.StepSpiritual; want++ {
		if !w.Next() {
			t.Fatalf("Next to step %d failed: %v", want, w.Errors)
		}
		if w.Step != want {
			t.Fatalf("step = %d, want %d", w.Step, want)
		}
	}
	if !w.Next() || w.Step != registration.StepSpiritual {
		t.Errorf("Next on last step should stay at 4, got %d", w.Step)
	}
}

// TestBackAndGoTo tests the unguarded transitions.
func TestBackAndGoTo(t *testing.T) {
	w := openAdd(t)
	w.Back()
	if w.Step != registration.StepPersonal {
		t.Errorf("Back from 1 = %d, want 1", w.Step)
	}
	// GoTo skips validation even though step 1 is incomplete.
	if err := w.GoTo(registration.StepSpiritual); err != nil {
		t.Fatalf("GoTo(4): %v", err)
	}
	if w.Step != registration.StepSpiritual {
		t.Errorf("step = %d, want 4", w.Step)
	}
	w.Back()
	if w.Step != registration.StepFamily {
		t.Errorf("Back from 4 = %d, want 3", w.Step)
	}
	for _, bad := range []registration.Step{0, 5, -1} {
		if err := w.GoTo(bad); err != registration.ErrInvalidStep {
			t.Errorf("GoTo(%d) = %v, want ErrInvalidStep", bad, err)
		}
	}
}

// TestChildren_AppendRemove verifies removing the first of two rows keeps the second.
func TestChildren_AppendRemove(t *testing.T) {
	w := openAdd(t)
	w.AppendChild()
	w.AppendChild()
	apply(t, w, `{"children":[{"full_name":"A"},{"full_name":"B"}]}`)

	if err := w.RemoveChild(0); err != nil {
		t.Fatalf("RemoveChild(0): %v", err)
	}
	if len(w.Draft.Children) != 1 || w.Draft.Children[0].FullName != "B" {
		t.Fatalf("children = %+v, want only B", w.Draft.Children)
	}
	p := registration.BuildPayload(w.Draft)
	if len(p.Children) != 1 || *p.Children[0].FullName != "B" {
		t.Errorf("payload children = %+v, want only B", p.Children)
	}
	if err := w.RemoveChild(3); err != registration.ErrChildIndex {
		t.Errorf("RemoveChild(3) = %v, want ErrChildIndex", err)
	}
}

// TestApply_KeepsChildrenWhenAbsent verifies a partial update leaves child rows alone.
func TestApply_KeepsChildrenWhenAbsent(t *testing.T) {
	w := openAdd(t)
	w.AppendChild()
	apply(t, w, `{"children":[{"full_name":"A","school_or_work":"St Mary's"}]}`)
	apply(t, w, `{"estate":"Kahawa"}`)
	if len(w.Draft.Children) != 1 || w.Draft.Children[0].SchoolOrWork != "St Mary's" {
		t.Errorf("children = %+v", w.Draft.Children)
	}
	if w.Draft.Estate != "Kahawa" {
		t.Errorf("estate = %q", w.Draft.Estate)
	}
}

// TestApply_RejectsUnknownFields verifies typos are not silently dropped.
func TestApply_RejectsUnknownFields(t *testing.T) {
	w := openAdd(t)
	if err := w.Apply([]byte(`{"ful_name":"x"}`), nil); err == nil {
		t.Error("Apply with unknown field should fail")
	}
	if err := w.Apply(nil, []byte(`{"agreed":true}`)); err == nil {
		t.Error("Apply with unknown pledge field should fail")
	}
}

// TestMaritalStatus_RetainsSpouseValues verifies visibility toggling never erases values.
func TestMaritalStatus_RetainsSpouseValues(t *testing.T) {
	w := openAdd(t)
	apply(t, w, `{"marital_status":"MARRIED","spouse_name":"X"}`)
	if !w.SpouseFieldsVisible() {
		t.Fatal("spouse fields should be visible when MARRIED")
	}
	apply(t, w, `{"marital_status":"SINGLE"}`)
	if w.SpouseFieldsVisible() {
		t.Error("spouse fields should be hidden when SINGLE")
	}
	if w.Draft.SpouseName != "X" {
		t.Errorf("spouse_name = %q, want retained X", w.Draft.SpouseName)
	}
	apply(t, w, `{"marital_status":"MARRIED"}`)
	if !w.SpouseFieldsVisible() || w.Draft.SpouseName != "X" {
		t.Errorf("visible=%v spouse_name=%q", w.SpouseFieldsVisible(), w.Draft.SpouseName)
	}
}

// TestSavedFieldsVisible tests salvation detail visibility.
func TestSavedFieldsVisible(t *testing.T) {
	w := openAdd(t)
	if w.SavedFieldsVisible() {
		t.Error("saved fields hidden by default")
	}
	apply(t, w, `{"saved":true}`)
	if !w.SavedFieldsVisible() {
		t.Error("saved fields shown when saved")
	}
}

// TestCheckSubmittable_PledgeGate verifies the pledge rules block submission.
func TestCheckSubmittable_PledgeGate(t *testing.T) {
	w := openAdd(t)
	apply(t, w, `{"full_name":"Grace","phone":"0712"}`)
	if err := w.Apply(nil, []byte(`{"signature_name":"Grace","signature_id":"1234"}`)); err != nil {
		t.Fatal(err)
	}
	err := w.CheckSubmittable()
	verr, ok := err.(*registration.ValidationError)
	if !ok {
		t.Fatalf("CheckSubmittable = %v, want *ValidationError", err)
	}
	if _, ok := verr.Fields["pledge_agreed"]; !ok || len(verr.Fields) != 1 {
		t.Errorf("fields = %v, want only pledge_agreed", verr.Fields)
	}
	if !strings.Contains(verr.Error(), "pledge_agreed") {
		t.Errorf("Error() = %q", verr.Error())
	}

	if err := w.Apply(nil, []byte(`{"pledge_agreed":true}`)); err != nil {
		t.Fatal(err)
	}
	if err := w.CheckSubmittable(); err != nil {
		t.Errorf("CheckSubmittable after agreeing = %v", err)
	}
}

// TestEditMode_Prefill verifies edit-mode population from an existing record.
func TestEditMode_Prefill(t *testing.T) {
	year := 1990
	m := member.Member{
		ID:          7,
		MemberType:  member.TypeOld,
		FullName:    "Grace Wanjiku",
		NationalID:  "12345678",
		YearOfBirth: &year,
		Children:    []member.Child{{FullName: "Baby", SchoolOrWork: "Nursery"}},
	}
	w, err := registration.Open("wiz-2", &m)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !w.IsEdit() || w.MemberID != 7 {
		t.Errorf("mode=%q memberID=%d", w.Mode, w.MemberID)
	}
	if w.Draft.DOB != "1990-01-01" {
		t.Errorf("dob = %q, want 1990-01-01", w.Draft.DOB)
	}
	if !w.Pledge.Agreed || w.Pledge.SignatureName != "Grace Wanjiku" || w.Pledge.SignatureID != "12345678" {
		t.Errorf("pledge = %+v", w.Pledge)
	}
	if len(w.Draft.Children) != 1 || w.Draft.Children[0].SchoolOrWork != "Nursery" {
		t.Errorf("children = %+v", w.Draft.Children)
	}

	apply(t, w, `{"member_type":"NEW"}`)
	if w.Draft.MemberType != member.TypeOld {
		t.Errorf("member_type changed in edit mode to %q", w.Draft.MemberType)
	}

	if _, err := registration.Open("wiz-3", &member.Member{}); err != registration.ErrEditWithoutMember {
		t.Errorf("Open with unsaved member = %v", err)
	}
}

// TestBuildPayload_DOBBecomesYear verifies dob is reduced to year_of_birth and never sent.
func TestBuildPayload_DOBBecomesYear(t *testing.T) {
	tests := []struct {
		dob  string
		want int
		ok   bool
	}{
		{"1990-05-12", 1990, true},
		{"1985-01-01T00:00:00Z", 1985, true},
		{"1975", 1975, true},
		{"", 0, false},
		{"not a date", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.dob, func(t *testing.T) {
			p := registration.BuildPayload(registration.Draft{DOB: tt.dob})
			if !tt.ok {
				if p.YearOfBirth != nil {
					t.Errorf("year_of_birth = %d, want nil", *p.YearOfBirth)
				}
				return
			}
			if p.YearOfBirth == nil || *p.YearOfBirth != tt.want {
				t.Errorf("year_of_birth = %v, want %d", p.YearOfBirth, tt.want)
			}
		})
	}

	body, _ := json.Marshal(registration.BuildPayload(registration.Draft{DOB: "1990-05-12"}))
	if strings.Contains(string(body), `"dob"`) {
		t.Errorf("payload must not carry dob: %s", body)
	}
	if !strings.Contains(string(body), `"year_of_birth":1990`) {
		t.Errorf("payload missing year_of_birth: %s", body)
	}
}

// TestBuildPayload_EmptyStringsBecomeNull verifies "" is sent as null.
func TestBuildPayload_EmptyStringsBecomeNull(t *testing.T) {
	d := registration.Draft{
		MemberType: member.TypeNew,
		FullName:   "Grace",
		Phase:      "",
		Children:   []registration.ChildDraft{{FullName: "A", DateOfBirth: ""}},
	}
	body, err := json.Marshal(registration.BuildPayload(d))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if v, ok := got["phase"]; !ok || v != nil {
		t.Errorf("phase = %v (present=%v), want null", v, ok)
	}
	children := got["children"].([]any)
	child := children[0].(map[string]any)
	if v, ok := child["date_of_birth"]; !ok || v != nil {
		t.Errorf("child date_of_birth = %v, want null", v)
	}
	for _, key := range []string{"signature_name", "signature_id", "pledge_agreed", "id", "member_id", "created_at", "updated_at", "main_ministry"} {
		if _, ok := got[key]; ok {
			t.Errorf("payload must not carry %q", key)
		}
	}
}

// TestBuildPayload_SpouseOnlyWhenMarried verifies hidden spouse values are not transmitted.
func TestBuildPayload_SpouseOnlyWhenMarried(t *testing.T) {
	married := registration.BuildPayload(registration.Draft{MaritalStatus: member.MaritalMarried, SpouseName: "X"})
	if married.SpouseName == nil || *married.SpouseName != "X" {
		t.Errorf("married spouse_name = %v, want X", married.SpouseName)
	}
	single := registration.BuildPayload(registration.Draft{MaritalStatus: member.MaritalSingle, SpouseName: "X"})
	if single.SpouseName != nil {
		t.Errorf("single spouse_name = %q, want nil", *single.SpouseName)
	}
}

// TestBuildPayload_NoChildrenOmitted verifies an empty child list is not sent.
func TestBuildPayload_NoChildrenOmitted(t *testing.T) {
	body, _ := json.Marshal(registration.BuildPayload(registration.Draft{Children: []registration.ChildDraft{}}))
	if strings.Contains(string(body), `"children"`) {
		t.Errorf("payload should omit children: %s", body)
	}
}
