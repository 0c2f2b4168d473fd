package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-docfill/pkg/apiclient"
	"github.com/goliatone/go-docfill/pkg/model"
)

// FakeClient is an in-memory apiclient.Client. Configure the exported fields
// before handing it to the code under test.
type FakeClient struct {
	Templates   map[string]model.Template
	Defs        map[string]model.Definitions
	Catalog     []model.ConfigurableDataType
	HTML        map[string]string
	DefsErr     error
	PreviewErr  error
	ProcessErr  error
	DownloadErr error
	// BeforeProcessReturn runs inside ProcessDocument before it returns.
	BeforeProcessReturn func()

	mu        sync.Mutex
	processed map[string]string
	saved     model.Definitions
	calls     map[string]int
}

var _ apiclient.Client = (*FakeClient)(nil)

func (f *FakeClient) record(op string) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

// Calls returns how often op was invoked. Ops are named after the method,
// e.g. "GetTemplate".
func (f *FakeClient) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Processed returns the data passed to the last ProcessDocument call.
func (f *FakeClient) Processed() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processed
}

// Saved returns the definitions passed to the last UpdateFieldDefinitions.
func (f *FakeClient) Saved() model.Definitions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

func (f *FakeClient) GetAllTemplates(context.Context) ([]model.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetAllTemplates")
	out := make([]model.Template, 0, len(f.Templates))
	for _, tpl := range f.Templates {
		out = append(out, tpl)
	}
	return out, nil
}

func (f *FakeClient) GetTemplate(_ context.Context, id string) (model.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetTemplate")
	tpl, ok := f.Templates[id]
	if !ok {
		return model.Template{}, &apiclient.StatusError{Op: "get template", Code: 404}
	}
	return tpl, nil
}

func (f *FakeClient) GetFieldDefinitions(_ context.Context, id string) (model.Definitions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetFieldDefinitions")
	if f.DefsErr != nil {
		return nil, f.DefsErr
	}
	return f.Defs[id].Clone(), nil
}

func (f *FakeClient) GetConfigurableDataTypes(context.Context, bool) ([]model.ConfigurableDataType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetConfigurableDataTypes")
	return f.Catalog, nil
}

func (f *FakeClient) GetHTMLPreview(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetHTMLPreview")
	if f.PreviewErr != nil {
		return "", f.PreviewErr
	}
	return f.HTML[id], nil
}

func (f *FakeClient) UpdateFieldDefinitions(_ context.Context, id string, defs model.Definitions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateFieldDefinitions")
	f.saved = defs.Clone()
	if f.Defs == nil {
		f.Defs = map[string]model.Definitions{}
	}
	f.Defs[id] = defs.Clone()
	return nil
}

func (f *FakeClient) ProcessDocument(_ context.Context, _ string, data map[string]string) (model.DocumentResult, error) {
	f.mu.Lock()
	f.record("ProcessDocument")
	f.processed = data
	hook := f.BeforeProcessReturn
	err := f.ProcessErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return model.DocumentResult{}, err
	}
	return model.DocumentResult{DocumentID: "doc-1", DownloadURL: "/d/doc-1"}, nil
}

func (f *FakeClient) DownloadDocument(_ context.Context, id, format string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DownloadDocument")
	if f.DownloadErr != nil {
		return nil, f.DownloadErr
	}
	return []byte(id + "." + format), nil
}

// MemoryDrafts is a map backed session.DraftStore.
type MemoryDrafts struct {
	mu     sync.Mutex
	values map[string]model.FormValues
}

func (m *MemoryDrafts) key(owner, templateID string) string { return owner + "/" + templateID }

func (m *MemoryDrafts) Save(_ context.Context, owner, templateID string, values model.FormValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]model.FormValues{}
	}
	m.values[m.key(owner, templateID)] = values.Clone()
	return nil
}

func (m *MemoryDrafts) Load(_ context.Context, owner, templateID string) (model.FormValues, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.values[m.key(owner, templateID)].Clone(), nil
}

func (m *MemoryDrafts) Delete(_ context.Context, owner, templateID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, m.key(owner, templateID))
	return nil
}

// BirthCertificate returns a client serving template "t-1" with a child
// name, a child date of birth and a mother name.
func BirthCertificate() *FakeClient {
	return &FakeClient{
		Templates: map[string]model.Template{
			"t-1": {
				ID:           "t-1",
				Name:         "birth",
				DisplayName:  "สูติบัตร",
				Placeholders: `["{{name}}","{{dob}}","{{mother_name}}"]`,
				Aliases:      `{"{{name}}":"ชื่อบุตร"}`,
			},
		},
		Defs: map[string]model.Definitions{
			"t-1": {
				"name":        {Placeholder: "{{name}}", Entity: model.EntityChild},
				"dob":         {Placeholder: "{{dob}}", DataType: "date", Entity: model.EntityChild},
				"mother_name": {Placeholder: "{{mother_name}}", Entity: model.EntityMother},
			},
		},
		Catalog: []model.ConfigurableDataType{
			{Code: "date", Name: "วันที่", InputType: "date", IsActive: true},
		},
		HTML: map[string]string{"t-1": "<p>{{name}} {{dob}} {{mother_name}}</p>"},
	}
}
