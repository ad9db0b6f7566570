package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

func mustParse(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestTemplateChildrenAreParsedInline(t *testing.T) {
	doc := mustParse(t, `<body><template id="row"><p>a</p><p>b</p></template></body>`)
	tpl := ElementByID(doc, "row")
	if !IsTemplate(tpl) {
		t.Fatalf("expected template element, got %#v", tpl)
	}
	if got := len(Children(tpl)); got != 2 {
		t.Fatalf("expected 2 template children, got %d", got)
	}
}

func TestCloneVisitsPairsAndDetaches(t *testing.T) {
	doc := mustParse(t, `<body><div class="x"><span>hi</span><template></template></div></body>`)
	div := Body(doc).FirstChild

	var pairs int
	clone := Clone(div, func(original, clone *html.Node) {
		if original.Data != clone.Data {
			t.Fatalf("pair mismatch: %q vs %q", original.Data, clone.Data)
		}
		pairs++
	})
	if clone.Parent != nil {
		t.Fatalf("clone must be detached")
	}
	if pairs != 4 {
		t.Fatalf("expected 4 visited pairs, got %d", pairs)
	}

	SetAttr(clone, "class", "y")
	if value, _ := Attr(div, "class"); value != "x" {
		t.Fatalf("clone attribute edit leaked into original: %q", value)
	}

	want, _ := Render(div)
	got, _ := Render(Clone(div, nil))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clone render mismatch (-want +got):\n%s", diff)
	}
}

func TestTemplateLookup(t *testing.T) {
	doc := mustParse(t, `<body><div><template id="a"><template id="b"></template></template></div><template id="c"></template></body>`)

	var top []string
	for _, tpl := range TopLevelTemplates(Body(doc)) {
		id, _ := Attr(tpl, "id")
		top = append(top, id)
	}
	if diff := cmp.Diff([]string{"a", "c"}, top); diff != "" {
		t.Fatalf("top level templates (-want +got):\n%s", diff)
	}

	var all []string
	for _, tpl := range AllTemplates(Body(doc)) {
		id, _ := Attr(tpl, "id")
		all = append(all, id)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, all); diff != "" {
		t.Fatalf("all templates (-want +got):\n%s", diff)
	}
}

func TestSetTextAndAttrs(t *testing.T) {
	doc := mustParse(t, `<body><p title="t">old<b>x</b></p></body>`)
	p := Body(doc).FirstChild

	SetText(p, "new")
	RemoveAttr(p, "title")
	SetAttr(p, "lang", "en")

	got, err := RenderChildren(Body(doc))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != `<p lang="en">new</p>` {
		t.Fatalf("unexpected render: %s", got)
	}
	if ChildAt(p, 0) == nil || ChildAt(p, 1) != nil {
		t.Fatalf("expected exactly one child after SetText")
	}
	if !Contains(doc, p) || Root(p) != doc {
		t.Fatalf("expected p to be attached to the document")
	}
}

func TestForeignAttrsUseQualifiedNames(t *testing.T) {
	doc := mustParse(t, `<body><svg><a xlink:href="/a">x</a></svg></body>`)
	link := Body(doc).FirstChild.FirstChild

	if got := AttrName(link.Attr[0]); got != "xlink:href" {
		t.Fatalf("expected qualified name, got %q", got)
	}
	if value, ok := Attr(link, "xlink:href"); !ok || value != "/a" {
		t.Fatalf("expected /a, got %q (%v)", value, ok)
	}
	if _, ok := Attr(link, "href"); ok {
		t.Fatalf("bare key must not match a namespaced attribute")
	}

	RemoveAttr(link, "xlink:href")
	SetAttr(link, "xlink:href", "/b")
	want := []html.Attribute{{Namespace: "xlink", Key: "href", Val: "/b"}}
	if diff := cmp.Diff(want, link.Attr); diff != "" {
		t.Fatalf("attrs mismatch (-want +got):\n%s", diff)
	}
}
