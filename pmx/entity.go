package pmx

// entity holds the state shared by every model element: its owner, its position in the
// owner's collection and its listeners.
type entity struct {
	observable
	model *Model
	index int
	null  bool
}

func newEntity() entity {
	return entity{index: -1}
}

// Index returns the position in the owning model, or -1.
func (e *entity) Index() int {
	if e == nil {
		return -1
	}
	return e.index
}

func (e *entity) Model() *Model {
	if e == nil {
		return nil
	}
	return e.model
}

// AddListener registers l. Placeholders never change, so they keep no listeners.
func (e *entity) AddListener(l PropertyListener) {
	if e.null {
		return
	}
	e.observable.AddListener(l)
}

func (e *entity) detach() {
	e.model = nil
	e.index = -1
}

// IsNull reports whether e is a shared placeholder for an absent reference.
func (e *entity) IsNull() bool {
	return e == nil || e.null
}

func (e *entity) base() *entity {
	return e
}

// named adds the Japanese/English name pair.
type named struct {
	entity
	names [languageCount]string
}

func newNamed() named {
	return named{entity: newEntity()}
}

func (n *named) Name(lang Language) string {
	if n == nil || lang < 0 || lang >= languageCount {
		return ""
	}
	return n.names[lang]
}

func (n *named) setName(target interface{}, kind nameKind, lang Language, name string) {
	if n.null || lang < 0 || lang >= languageCount || n.names[lang] == name {
		return
	}
	n.notifyLang(target, PropertyName, lang, n.names[lang], name)
	n.names[lang] = name
	if n.model != nil {
		n.model.rebuildNames(kind)
	}
}

func (n *named) readNames(d *decoder) {
	n.names[Japanese] = d.readText()
	n.names[English] = d.readText()
}

func (n *named) writeNames(e *encoder) {
	e.writeText(n.names[Japanese])
	e.writeText(n.names[English])
}

func (n *named) namesSize(info *DataInfo) int {
	return textSize(info, n.names[Japanese]) + textSize(info, n.names[English])
}

// cloneNamed returns a copy of the names with ownership and listeners stripped.
func (n *named) cloneNamed() named {
	c := newNamed()
	c.names = n.names
	return c
}
