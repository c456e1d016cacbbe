// Package testing provides fixtures and assertions for stmtql tests.
package testing

import (
	"strings"
	"testing"

	"github.com/zoobzio/stmtql"
	"github.com/zoobzio/stmtql/model"
)

// Registry builds the fixture models:
//
//	User     id, firstName, lastName (last_name), email, active, createdAt
//	Post     id, title, published, userId
//	Comment  id, body, postId
//	Profile  id, bio, userId
//	Project  id, name
//	UserProjects  userId, projectId, role
//
// User hasMany Post as posts, hasOne Profile as profile and belongsToMany
// Project through UserProjects as projects. Post belongsTo User as author
// and hasMany Comment as comments.
func Registry(t testing.TB) *model.Registry {
	t.Helper()

	r := model.NewRegistry()
	define := func(name string, attrs []model.Attribute, opts ...model.Option) *model.Model {
		m, err := r.Define(name, attrs, opts...)
		if err != nil {
			t.Fatalf("Failed to define %s: %v", name, err)
		}
		return m
	}

	user := define("User", []model.Attribute{
		{Name: "id", Type: model.Integer, PrimaryKey: true, AutoIncrement: true},
		{Name: "firstName"},
		{Name: "lastName", Field: "last_name"},
		{Name: "email"},
		{Name: "active", Type: model.Boolean},
		{Name: "createdAt", Type: model.Date},
	})
	post := define("Post", []model.Attribute{
		{Name: "title"},
		{Name: "published", Type: model.Boolean},
		{Name: "userId", Type: model.Integer},
	})
	comment := define("Comment", []model.Attribute{
		{Name: "body", Type: model.Text},
		{Name: "postId", Type: model.Integer},
	})
	profile := define("Profile", []model.Attribute{
		{Name: "bio", Type: model.Text},
		{Name: "userId", Type: model.Integer},
	})
	project := define("Project", []model.Attribute{
		{Name: "name"},
	})
	userProjects := define("UserProjects", []model.Attribute{
		{Name: "userId", Type: model.Integer, PrimaryKey: true},
		{Name: "projectId", Type: model.Integer, PrimaryKey: true},
		{Name: "role"},
	}, model.WithTableName("UserProjects"))

	must := func(_ *model.Association, err error) {
		if err != nil {
			t.Fatalf("Failed to associate: %v", err)
		}
	}
	must(user.HasMany(post, model.AssociationOptions{As: "posts"}))
	must(user.HasOne(profile, model.AssociationOptions{As: "profile"}))
	must(user.BelongsToMany(project, userProjects, model.AssociationOptions{As: "projects"}))
	must(post.BelongsTo(user, model.AssociationOptions{As: "author", ForeignKey: "userId"}))
	must(post.HasMany(comment, model.AssociationOptions{As: "comments"}))
	return r
}

// Compiler creates a compiler for d over the fixture models.
func Compiler(t testing.TB, d stmtql.Dialect, opts ...stmtql.Option) *stmtql.Compiler {
	t.Helper()
	c, err := stmtql.NewForDialect(d, append([]stmtql.Option{stmtql.WithRegistry(Registry(t))}, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create %s compiler: %v", d, err)
	}
	return c
}

// AssertSQL compares expected and actual SQL, reporting detailed differences.
func AssertSQL(t testing.TB, expected, actual string) {
	t.Helper()
	if expected != actual {
		t.Errorf("SQL mismatch:\nExpected: %s\nActual:   %s", expected, actual)
	}
}

// AssertBind checks that a statement binds exactly the expected values.
func AssertBind(t testing.TB, expected map[string]any, st *stmtql.Statement) {
	t.Helper()
	if len(expected) != len(st.Bind) {
		t.Errorf("Bind count mismatch: expected %d, got %d\nExpected: %v\nActual: %v",
			len(expected), len(st.Bind), expected, st.Bind)
		return
	}
	for name, want := range expected {
		got, ok := st.Bind[name]
		if !ok {
			t.Errorf("Missing bind %q\nExpected: %v\nActual: %v", name, expected, st.Bind)
			continue
		}
		if got != want {
			t.Errorf("Bind %q = %v (%T), want %v (%T)", name, got, got, want, want)
		}
	}
}

// AssertErrorContains checks that error message contains substring.
func AssertErrorContains(t testing.TB, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertPanics verifies that a function panics.
func AssertPanics(t testing.TB, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic but function completed normally")
		}
	}()
	fn()
}
