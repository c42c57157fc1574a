package graft

// Names are the document keys used for the two edges of a hydrated graph.
type Names struct {
	Children string
	Item     string
}

// DefaultNames is used by Parent.Document when no names are configured.
var DefaultNames = Names{Children: "children", Item: "item"}

func (n Names) orDefault() Names {
	if n.Children == "" {
		n.Children = DefaultNames.Children
	}
	if n.Item == "" {
		n.Item = DefaultNames.Item
	}
	return n
}

// Document returns the parent as a plain map of shape
// {id, <fields>, children: [{id?, <fields>, item: {id, <fields>}}]}.
// The id and edge keys take precedence over fields of the same name;
// schema.Normalize rejects such columns.
func (p *Parent) Document(names Names) map[string]any {
	names = names.orDefault()
	doc := document(p.ID, p.Fields)
	children := make([]any, 0, len(p.Children))
	for _, j := range p.Children {
		children = append(children, j.Document(names))
	}
	doc[names.Children] = children
	return doc
}

// Document returns the junction as a plain map. The id key is present only
// for junctions with an independent key.
func (j *Junction) Document(names Names) map[string]any {
	names = names.orDefault()
	doc := document(j.ID, j.Fields)
	if j.ID == nil {
		delete(doc, "id")
	}
	if j.Item != nil {
		doc[names.Item] = j.Item.Document()
	}
	return doc
}

// Document returns the child as a plain map.
func (c *Child) Document() map[string]any {
	return document(c.ID, c.Fields)
}

// Document maps every parent to its document. The result is never nil.
func Document(parents []*Parent, names Names) []map[string]any {
	docs := make([]map[string]any, 0, len(parents))
	for _, p := range parents {
		docs = append(docs, p.Document(names))
	}
	return docs
}

func document(id any, fields map[string]any) map[string]any {
	doc := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		doc[k] = v
	}
	doc["id"] = id
	return doc
}
