package template

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/goliatone/go-tplbind/pkg/content"
	"github.com/goliatone/go-tplbind/pkg/model"
)

func setup(t *testing.T, markup string, data map[string]any) (*Engine, *model.Map, *html.Node) {
	t.Helper()
	doc, err := content.ParseString("<html><body>" + markup + "</body></html>")
	require.NoError(t, err)
	root := model.FromValue(data).(*model.Map)
	engine := New(doc, root, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, engine.DecorateAll())
	return engine, root, content.Body(doc)
}

func render(t *testing.T, node *html.Node) string {
	t.Helper()
	out, err := content.RenderChildren(node)
	require.NoError(t, err)
	return out
}

func firstTemplate(t *testing.T, e *Engine, node *html.Node) *Iterator {
	t.Helper()
	templates := content.TopLevelTemplates(node)
	require.NotEmpty(t, templates)
	it, err := e.Iterator(templates[0])
	require.NoError(t, err)
	return it
}

func scopes(it *Iterator) []string {
	var out []string
	for _, inst := range it.Instances() {
		out = append(out, inst.Scope())
	}
	return out
}

func ids(it *Iterator) []string {
	var out []string
	for _, inst := range it.Instances() {
		out = append(out, inst.ID())
	}
	return out
}

func list(t *testing.T, root *model.Map, path string) *model.List {
	t.Helper()
	value, ok := model.Resolve(root, path)
	require.True(t, ok, "path %s", path)
	l, ok := value.(*model.List)
	require.True(t, ok, "path %s is %T", path, value)
	return l
}

func item(name string) *model.Map {
	return model.NewMap(map[string]any{"name": name})
}

const itemsMarkup = `<ul><template iterate="items"><li>{{ name }}</li></template></ul>`

func itemsData(names ...string) map[string]any {
	items := make([]any, 0, len(names))
	for _, name := range names {
		items = append(items, map[string]any{"name": name})
	}
	return map[string]any{"items": items}
}

func TestIterateCreatesOneInstancePerElement(t *testing.T) {
	e, _, body := setup(t, itemsMarkup, itemsData("a", "b", "c"))
	it := firstTemplate(t, e, body)

	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>b</li><li>c</li></ul>`, render(t, body))
	if diff := cmp.Diff([]string{"items.0", "items.1", "items.2"}, scopes(it)); diff != "" {
		t.Fatalf("scopes (-want +got):\n%s", diff)
	}
	require.Equal(t, StateWatchingList, it.State())
	for _, inst := range it.Instances() {
		require.True(t, inst.Materialized())
		require.False(t, inst.ScopeDirty())
		require.Len(t, inst.Nodes(), 1)
	}
}

func TestSpliceInsertRenumbersSuccessors(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b", "c"))
	it := firstTemplate(t, e, body)
	before := it.Instances()
	bNode := before[1].Nodes()[0]

	list(t, root, "items").Splice(1, 0, item("x"))

	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>x</li><li>b</li><li>c</li></ul>`, render(t, body))
	if diff := cmp.Diff([]string{"items.0", "items.1", "items.2", "items.3"}, scopes(it)); diff != "" {
		t.Fatalf("scopes (-want +got):\n%s", diff)
	}
	after := it.Instances()
	require.Equal(t, before[0].ID(), after[0].ID())
	require.Equal(t, before[1].ID(), after[2].ID(), "existing instance must be renumbered, not recreated")
	require.Equal(t, before[2].ID(), after[3].ID())
	require.Same(t, bNode, after[2].Nodes()[0])
	require.Zero(t, it.Pending())
}

func TestSpliceRemoveDropsInstances(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b", "c", "d"))
	it := firstTemplate(t, e, body)
	before := ids(it)

	removed := list(t, root, "items").Splice(1, 2)
	require.Len(t, removed, 2)

	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>d</li></ul>`, render(t, body))
	if diff := cmp.Diff([]string{"items.0", "items.1"}, scopes(it)); diff != "" {
		t.Fatalf("scopes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{before[0], before[3]}, ids(it)); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
}

func TestSpliceReplaceKeepsSuccessorScopes(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b", "c"))
	it := firstTemplate(t, e, body)
	before := it.Instances()

	list(t, root, "items").Splice(1, 1, item("y"))

	after := it.Instances()
	require.Len(t, after, 3)
	require.NotEqual(t, before[1].ID(), after[1].ID(), "replacement is a new instance")
	require.Equal(t, before[2].ID(), after[2].ID())
	require.Equal(t, "items.2", after[2].Scope())
	require.True(t, before[1].MarkedForRemoval())
	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>y</li><li>c</li></ul>`, render(t, body))
}

func TestRemovedAndReinsertedElementGetsFreshInstance(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b", "c"))
	it := firstTemplate(t, e, body)
	items := list(t, root, "items")
	old := it.Instances()[1]

	removed := items.Splice(1, 1)
	items.Splice(1, 0, removed...)

	fresh := it.Instances()[1]
	require.NotEqual(t, old.ID(), fresh.ID())
	require.NotSame(t, old, fresh)
	require.Empty(t, old.Nodes())
	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>b</li><li>c</li></ul>`, render(t, body))
}

func TestAddThenRemoveRestoresTree(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b"))
	it := firstTemplate(t, e, body)
	items := list(t, root, "items")

	want := render(t, body)
	rootObservers := root.ObserverCount()
	listObservers := items.ObserverCount()

	items.Append(item("c"))
	require.Equal(t, 3, it.Len())
	items.RemoveAt(2, 1)

	require.Equal(t, want, render(t, body))
	require.Equal(t, rootObservers, root.ObserverCount(), "bindings leaked on root")
	require.Equal(t, listObservers, items.ObserverCount(), "bindings leaked on list")
}

func TestDestroyStopsFurtherUpdates(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b"))
	it := firstTemplate(t, e, body)
	items := list(t, root, "items")

	it.Destroy()
	it.Destroy()

	require.Equal(t, StateDestroyed, it.State())
	require.Zero(t, it.Len())
	require.Equal(t, `<ul><template iterate="items"></template></ul>`, render(t, body))
	require.Zero(t, items.ObserverCount())
	require.Zero(t, root.ObserverCount())

	items.Append(item("c"))
	root.Set("items", model.NewList(item("z")))
	require.Zero(t, it.Len())
	require.Equal(t, `<ul><template iterate="items"></template></ul>`, render(t, body))
	require.ErrorIs(t, it.Start(), ErrDestroyed)

	h, ok := e.Handle(it.Template())
	require.True(t, ok)
	require.NotSame(t, it, h.Iterator(), "a destroyed iterator is replaced on next access")
}

func TestStartOnDetachedTemplateFails(t *testing.T) {
	doc, err := content.ParseString("<html><body></body></html>")
	require.NoError(t, err)
	e := New(doc, model.NewMap(map[string]any{"items": model.NewList(item("a"))}))

	tpl := &html.Node{Type: html.ElementNode, Data: "template"}
	content.SetAttr(tpl, AttrIterate, "items")

	it, err := e.Iterator(tpl)
	require.NoError(t, err)
	err = it.Start()
	require.True(t, errors.Is(err, ErrDetachedTemplate), "got %v", err)
	require.Zero(t, it.Len())
	require.Equal(t, StateUninitialized, it.State())

	_, err = e.Iterator(&html.Node{Type: html.ElementNode, Data: "div"})
	require.ErrorIs(t, err, ErrNotTemplate)
}

func TestNonSpliceMutationsKeepInstances(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b"))
	it := firstTemplate(t, e, body)
	before := ids(it)

	require.NoError(t, list(t, root, "items").Set(0, item("q")))
	require.NoError(t, model.Set(root, "items.1.name", "r"))

	require.Equal(t, before, ids(it))
	require.Equal(t, `<ul><template iterate="items"></template><li>q</li><li>r</li></ul>`, render(t, body))
}

func TestReplacingArrayRebuilds(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, itemsData("a", "b"))
	it := firstTemplate(t, e, body)
	old := list(t, root, "items")
	before := ids(it)

	root.Set("items", model.NewList(item("x")))
	require.Equal(t, `<ul><template iterate="items"></template><li>x</li></ul>`, render(t, body))
	require.NotEqual(t, before[0], ids(it)[0])

	old.Append(item("ignored"))
	require.Equal(t, 1, it.Len(), "old array must no longer be observed")

	list(t, root, "items").Append(item("y"))
	require.Equal(t, `<ul><template iterate="items"></template><li>x</li><li>y</li></ul>`, render(t, body))

	root.Delete("items")
	require.Zero(t, it.Len())
}

func TestInstantiateDoesNotChurnBetweenValues(t *testing.T) {
	e, root, body := setup(t, `<div><template instantiate="user"><p>{{ name }}</p></template></div>`,
		map[string]any{"user": map[string]any{"name": "ada"}})
	it := firstTemplate(t, e, body)
	require.Equal(t, StateWatchingScalar, it.State())
	require.Equal(t, []string{"user"}, scopes(it))
	first := it.First()

	root.Set("user", model.NewMap(map[string]any{"name": "grace"}))
	require.Same(t, first, it.First())
	require.Equal(t, `<div><template instantiate="user"></template><p>grace</p></div>`, render(t, body))

	root.Set("user", nil)
	require.Zero(t, it.Len())
	require.Equal(t, `<div><template instantiate="user"></template></div>`, render(t, body))

	root.Set("user", model.NewMap(map[string]any{"name": "linus"}))
	require.Equal(t, 1, it.Len())
	require.NotEqual(t, first.ID(), it.First().ID())
	require.Equal(t, `<div><template instantiate="user"></template><p>linus</p></div>`, render(t, body))
}

func TestModeNoneRendersOnce(t *testing.T) {
	e, root, body := setup(t, `<div><template><i>{{ title }}</i></template></div>`,
		map[string]any{"title": "hello"})
	it := firstTemplate(t, e, body)

	require.Equal(t, 1, it.Len())
	require.Equal(t, "", it.First().Scope())
	require.Equal(t, `<div><template></template><i>hello</i></div>`, render(t, body))

	root.Set("title", "bye")
	require.Equal(t, `<div><template></template><i>bye</i></div>`, render(t, body))
}

func TestNestedTemplatesFollowOuterSplices(t *testing.T) {
	markup := `<div><template iterate="groups"><section><h2>{{ title }}</h2><template iterate="items"><p>{{ . }}</p></template></section></template></div>`
	data := map[string]any{"groups": []any{
		map[string]any{"title": "g1", "items": []any{"x", "y"}},
		map[string]any{"title": "g2", "items": []any{"z"}},
	}}
	_, root, body := setup(t, markup, data)

	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><h2>g1</h2><template iterate="items"></template><p>x</p><p>y</p></section>`+
			`<section><h2>g2</h2><template iterate="items"></template><p>z</p></section></div>`,
		render(t, body))

	list(t, root, "groups.1.items").Append("w")
	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><h2>g1</h2><template iterate="items"></template><p>x</p><p>y</p></section>`+
			`<section><h2>g2</h2><template iterate="items"></template><p>z</p><p>w</p></section></div>`,
		render(t, body))

	firstItems := list(t, root, "groups.0.items")
	list(t, root, "groups").Splice(0, 1)
	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><h2>g2</h2><template iterate="items"></template><p>z</p><p>w</p></section></div>`,
		render(t, body))
	require.Zero(t, firstItems.ObserverCount(), "nested iterator of a removed instance must be destroyed")

	// the surviving nested iterator now resolves groups.0.items
	list(t, root, "groups.0.items").Splice(0, 1)
	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><h2>g2</h2><template iterate="items"></template><p>w</p></section></div>`,
		render(t, body))
}

func TestOuterSpliceKeepsNestedInstancesOfSurvivors(t *testing.T) {
	markup := `<div><template iterate="groups"><section><template iterate="items"><p>{{ . }}</p></template></section></template></div>`
	data := map[string]any{"groups": []any{
		map[string]any{"items": []any{"a"}},
		map[string]any{"items": []any{"x", "y"}},
	}}
	e, root, body := setup(t, markup, data)
	outer := firstTemplate(t, e, body)

	survivor := outer.Instances()[1]
	inner := firstTemplate(t, e, survivor.Nodes()[0])
	before := ids(inner)
	firstP := inner.First().Nodes()[0]
	require.Equal(t, []string{"groups.1.items.0", "groups.1.items.1"}, scopes(inner))

	list(t, root, "groups").Splice(0, 1)
	require.Same(t, survivor, outer.First())
	require.Equal(t, before, ids(inner))
	require.Same(t, firstP, inner.First().Nodes()[0])
	require.Equal(t, []string{"groups.0.items.0", "groups.0.items.1"}, scopes(inner))
	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><template iterate="items"></template><p>x</p><p>y</p></section></div>`,
		render(t, body))

	list(t, root, "groups").Splice(0, 0, model.FromValue(map[string]any{"items": []any{"n"}}))
	require.Same(t, survivor, outer.Instances()[1])
	require.Equal(t, before, ids(inner))
	require.Same(t, firstP, inner.First().Nodes()[0])
	require.Equal(t, []string{"groups.1.items.0", "groups.1.items.1"}, scopes(inner))
	require.Equal(t,
		`<div><template iterate="groups"></template>`+
			`<section><template iterate="items"></template><p>n</p></section>`+
			`<section><template iterate="items"></template><p>x</p><p>y</p></section></div>`,
		render(t, body))

	list(t, root, "groups.1.items").Append("z")
	require.Equal(t, before, ids(inner)[:2])
	require.Equal(t, "groups.1.items.2", inner.Last().Scope())
}

func TestNestedTemplateAsTopLevelNodeKeepsOrder(t *testing.T) {
	markup := `<div><template iterate="rows"><template iterate="cells"><span>{{ . }}</span></template></template></div>`
	data := map[string]any{"rows": []any{
		map[string]any{"cells": []any{1, 2}},
		map[string]any{"cells": []any{3}},
	}}
	e, root, body := setup(t, markup, data)
	outer := firstTemplate(t, e, body)

	require.Equal(t,
		`<div><template iterate="rows"></template>`+
			`<template iterate="cells"></template><span>1</span><span>2</span>`+
			`<template iterate="cells"></template><span>3</span></div>`,
		render(t, body))

	list(t, root, "rows.0.cells").Append(9)
	require.Equal(t,
		`<div><template iterate="rows"></template>`+
			`<template iterate="cells"></template><span>1</span><span>2</span><span>9</span>`+
			`<template iterate="cells"></template><span>3</span></div>`,
		render(t, body))

	last := outer.LastManagedNode()
	require.Equal(t, "span", last.Data)
	require.Equal(t, "3", last.FirstChild.Data)

	list(t, root, "rows").Append(model.NewMap(map[string]any{"cells": model.NewList()}))
	require.Equal(t, "template", outer.LastManagedNode().Data, "empty nested iterator ends at its template")

	list(t, root, "rows").Append(model.NewMap(map[string]any{"cells": model.NewList(4)}))
	require.Equal(t,
		`<div><template iterate="rows"></template>`+
			`<template iterate="cells"></template><span>1</span><span>2</span><span>9</span>`+
			`<template iterate="cells"></template><span>3</span>`+
			`<template iterate="cells"></template>`+
			`<template iterate="cells"></template><span>4</span></div>`,
		render(t, body))
}

func TestScopeChangeIsAppliedDuringSync(t *testing.T) {
	e, _, body := setup(t, itemsMarkup, itemsData("a", "b"))
	it := firstTemplate(t, e, body)
	inst := it.Last()

	inst.setScope("items.0")
	require.True(t, inst.ScopeDirty())
	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>b</li></ul>`, render(t, body))

	it.synchronize()
	require.False(t, inst.ScopeDirty())
	require.Equal(t, `<ul><template iterate="items"></template><li>a</li><li>a</li></ul>`, render(t, body))
}

func TestSetModeRestartsIterator(t *testing.T) {
	e, root, body := setup(t, itemsMarkup, map[string]any{
		"items": []any{map[string]any{"name": "a"}},
		"other": []any{map[string]any{"name": "o1"}, map[string]any{"name": "o2"}},
	})
	it := firstTemplate(t, e, body)
	h, ok := e.Handle(it.Template())
	require.True(t, ok)

	require.NoError(t, h.SetMode(Iterate("other")))
	require.Equal(t, Iterate("other"), h.Mode())
	require.Equal(t, `<ul><template iterate="other"></template><li>o1</li><li>o2</li></ul>`, render(t, body))

	list(t, root, "items").Append(item("ignored"))
	require.Equal(t, 2, it.Len())

	require.NoError(t, h.SetMode(Instantiate("items.0")))
	require.Equal(t, `<ul><template instantiate="items.0"></template><li>a</li></ul>`, render(t, body))
}
