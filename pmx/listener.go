package pmx

import "reflect"

// Language selects one of the two name slots every named entity carries.
type Language int

const (
	Japanese Language = iota
	English
	languageCount
)

type Property string

const (
	PropertyName          Property = "name"
	PropertyComment       Property = "comment"
	PropertyOrigin        Property = "origin"
	PropertyParent        Property = "parent"
	PropertyAmbient       Property = "ambient"
	PropertyDiffuse       Property = "diffuse"
	PropertySpecular      Property = "specular"
	PropertyShininess     Property = "shininess"
	PropertyEdgeColor     Property = "edgeColor"
	PropertyEdgeSize      Property = "edgeSize"
	PropertyEdgeWidth     Property = "edgeWidth"
	PropertyOpacity       Property = "opacity"
	PropertyScaleFactor   Property = "scaleFactor"
	PropertyTranslation   Property = "translation"
	PropertyOrientation   Property = "orientation"
	PropertyVisible       Property = "visible"
	PropertyPhysics       Property = "physics"
	PropertyParentModel   Property = "parentModel"
	PropertyParentBone    Property = "parentBone"
	PropertyVersion       Property = "version"
	PropertyEncoding      Property = "encoding"
	PropertyAdditionalUVs Property = "additionalUVs"
)

// PropertyEvent is delivered before Property of Target changes from Old to New.
type PropertyEvent struct {
	Target   interface{}
	Property Property
	Language Language
	Old      interface{}
	New      interface{}
}

type PropertyListener interface {
	PropertyWillChange(ev *PropertyEvent)
}

type PropertyListenerFunc func(ev *PropertyEvent)

func (f PropertyListenerFunc) PropertyWillChange(ev *PropertyEvent) {
	f(ev)
}

// observable is embedded by every entity and by Model.
type observable struct {
	listeners []PropertyListener
}

func (o *observable) AddListener(l PropertyListener) {
	o.listeners = append(o.listeners, l)
}

// RemoveListener drops the first registration of l. Func listeners match by code pointer.
func (o *observable) RemoveListener(l PropertyListener) {
	for i, v := range o.listeners {
		if sameListener(v, l) {
			o.listeners = append(o.listeners[:i:i], o.listeners[i+1:]...)
			return
		}
	}
}

func sameListener(a, b PropertyListener) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	if ta.Kind() == reflect.Func {
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	return false
}

func (o *observable) notify(target interface{}, prop Property, old, new interface{}) {
	o.notifyLang(target, prop, Japanese, old, new)
}

func (o *observable) notifyLang(target interface{}, prop Property, lang Language, old, new interface{}) {
	if len(o.listeners) == 0 {
		return
	}
	ev := &PropertyEvent{Target: target, Property: prop, Language: lang, Old: old, New: new}
	for _, l := range o.listeners {
		l.PropertyWillChange(ev)
	}
}

