package stmtql_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/stmtql"
	stmtqltest "github.com/zoobzio/stmtql/testing"
)

const (
	qualifiedUserCols = `"User"."id", "User"."firstName", "User"."last_name" AS "lastName", "User"."email", "User"."active", "User"."createdAt"`
	postCols          = `"posts"."id" AS "posts.id", "posts"."title" AS "posts.title", "posts"."published" AS "posts.published", "posts"."userId" AS "posts.userId"`
)

func selectUser(t *testing.T, d stmtql.Dialect, opts stmtql.FindOptions) *stmtql.Statement {
	t.Helper()
	st, err := stmtqltest.Compiler(t, d).Select(stmtql.QueryDescriptor{Model: "User", FindOptions: opts})
	require.NoError(t, err)
	return st
}

func TestSelect_GroupHaving(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"email", stmtql.Alias(stmtql.Count(), "n")}},
		Group:      []any{"email"},
		Having:     stmtql.Where(stmtql.Count(), stmtql.OpGt, 1),
	})

	stmtqltest.AssertSQL(t, `SELECT "email", COUNT(*) AS "n" FROM "Users" AS "User" GROUP BY "User"."email" HAVING COUNT(*) > $sequelize_1;`, st.Query)
	stmtqltest.AssertBind(t, map[string]any{"sequelize_1": 1}, st)
}

func TestSelect_Distinct(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"email"}},
		Distinct:   true,
	})
	stmtqltest.AssertSQL(t, `SELECT DISTINCT "email" FROM "Users" AS "User";`, st.Query)
}

func TestSelect_Exclude(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Exclude: []string{"email", "active", "createdAt"}},
	})
	stmtqltest.AssertSQL(t, `SELECT "id", "firstName", "last_name" AS "lastName" FROM "Users" AS "User";`, st.Query)
}

func TestSelect_OrDisjunctionInsideAnd(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
		Where: stmtql.WhereOptions{
			"active": true,
			stmtql.OpOr: []any{
				stmtql.WhereOptions{"firstName": "Ada"},
				stmtql.WhereOptions{"firstName": "Zoe"},
			},
		},
	})
	stmtqltest.AssertSQL(t, `SELECT "id" FROM "Users" AS "User" WHERE "User"."active" = $sequelize_1 AND ("User"."firstName" = $sequelize_2 OR "User"."firstName" = $sequelize_3);`, st.Query)
}

func TestSelect_Lock(t *testing.T) {
	tests := []struct {
		dialect stmtql.Dialect
		mode    stmtql.LockMode
		want    string
		option  string
	}{
		{dialect: stmtql.Postgres, mode: stmtql.LockUpdate, want: `SELECT "id" FROM "Users" AS "User" FOR UPDATE;`},
		{dialect: stmtql.Postgres, mode: stmtql.LockKeyShare, want: `SELECT "id" FROM "Users" AS "User" FOR KEY SHARE;`},
		{dialect: stmtql.MySQL, mode: stmtql.LockShare, want: "SELECT `id` FROM `Users` AS `User` FOR SHARE;"},
		{dialect: stmtql.MySQL, mode: stmtql.LockNoKeyUpdate, option: "lock NO KEY UPDATE"},
		{dialect: stmtql.SQLite, mode: stmtql.LockUpdate, option: "lock UPDATE"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect.String()+" "+string(tt.mode), func(t *testing.T) {
			st, err := stmtqltest.Compiler(t, tt.dialect).Select(stmtql.QueryDescriptor{
				Model: "User",
				FindOptions: stmtql.FindOptions{
					Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
					Lock:       tt.mode,
				},
			})
			if tt.option != "" {
				var unsupported stmtql.UnsupportedOptionError
				require.True(t, errors.As(err, &unsupported), "got %v", err)
				assert.Equal(t, []string{tt.option}, unsupported.Options)
				return
			}
			require.NoError(t, err)
			stmtqltest.AssertSQL(t, tt.want, st.Query)
		})
	}
}

func TestSelect_OrderDirection(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres)

	st, err := c.Select(stmtql.QueryDescriptor{
		Model: "User",
		FindOptions: stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Order:      []stmtql.OrderItem{stmtql.OrderBy(nil, "lastName", "desc nulls last")},
		},
	})
	require.NoError(t, err)
	stmtqltest.AssertSQL(t, `SELECT "id" FROM "Users" AS "User" ORDER BY "User"."last_name" DESC NULLS LAST;`, st.Query)

	_, err = c.Select(stmtql.QueryDescriptor{
		Model: "User",
		FindOptions: stmtql.FindOptions{
			Order: []stmtql.OrderItem{stmtql.OrderBy(nil, "id", "DESC; DROP TABLE users")},
		},
	})
	stmtqltest.AssertErrorContains(t, err, "invalid order direction")

	_, err = stmtqltest.Compiler(t, stmtql.MySQL).Select(stmtql.QueryDescriptor{
		Model: "User",
		FindOptions: stmtql.FindOptions{
			Order: []stmtql.OrderItem{stmtql.OrderBy(nil, "id", "ASC NULLS FIRST")},
		},
	})
	var unsupported stmtql.UnsupportedOptionError
	assert.True(t, errors.As(err, &unsupported), "got %v", err)
}

func TestSelect_Include(t *testing.T) {
	t.Run("hasMany", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Include: []stmtql.Include{{Association: "posts"}},
		})
		stmtqltest.AssertSQL(t,
			`SELECT `+qualifiedUserCols+`, `+postCols+` FROM "Users" AS "User"`+
				` LEFT OUTER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId";`,
			st.Query)
	})

	t.Run("where makes the include required", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
				Where:       stmtql.WhereOptions{"published": true},
			}},
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User"."id", "posts"."title" AS "posts.title" FROM "Users" AS "User"`+
				` INNER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId" AND "posts"."published" = $sequelize_1;`,
			st.Query)
		stmtqltest.AssertBind(t, map[string]any{"sequelize_1": true}, st)
	})

	t.Run("required false keeps the outer join", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
				Where:       stmtql.WhereOptions{"published": true},
				Required:    stmtql.Bool(false),
			}},
		})
		assert.Contains(t, st.Query, ` LEFT OUTER JOIN "Posts" AS "posts" ON `)
	})

	t.Run("nested", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
				Include: []stmtql.Include{{
					Association: "comments",
					Attributes:  &stmtql.AttributeOptions{Only: []any{"body"}},
				}},
			}},
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User"."id", "posts"."title" AS "posts.title", "posts->comments"."body" AS "posts.comments.body"`+
				` FROM "Users" AS "User"`+
				` LEFT OUTER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId"`+
				` LEFT OUTER JOIN "Comments" AS "posts->comments" ON "posts"."id" = "posts->comments"."postId";`,
			st.Query)
	})

	t.Run("belongsTo", func(t *testing.T) {
		st, err := stmtqltest.Compiler(t, stmtql.Postgres).Select(stmtql.QueryDescriptor{
			Model: "Post",
			FindOptions: stmtql.FindOptions{
				Attributes: &stmtql.AttributeOptions{Only: []any{"title"}},
				Include: []stmtql.Include{{
					Association: "author",
					Attributes:  &stmtql.AttributeOptions{Only: []any{"email"}},
				}},
			},
		})
		require.NoError(t, err)
		stmtqltest.AssertSQL(t,
			`SELECT "Post"."title", "author"."email" AS "author.email" FROM "Posts" AS "Post"`+
				` LEFT OUTER JOIN "Users" AS "author" ON "Post"."userId" = "author"."id";`,
			st.Query)
	})

	t.Run("by model", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Model:      "Profile",
				Attributes: &stmtql.AttributeOptions{Only: []any{"bio"}},
			}},
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User"."id", "profile"."bio" AS "profile.bio" FROM "Users" AS "User"`+
				` LEFT OUTER JOIN "Profiles" AS "profile" ON "User"."id" = "profile"."userId";`,
			st.Query)
	})

	t.Run("mssql", func(t *testing.T) {
		st := selectUser(t, stmtql.MSSQL, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
			}},
		})
		stmtqltest.AssertSQL(t,
			`SELECT [User].[id], [posts].[title] AS [posts.title] FROM [Users] AS [User]`+
				` LEFT OUTER JOIN [Posts] AS [posts] ON [User].[id] = [posts].[userId];`,
			st.Query)
	})
}

func TestSelect_BelongsToMany(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
		Include: []stmtql.Include{{
			Association: "projects",
			Attributes:  &stmtql.AttributeOptions{Only: []any{"name"}},
			Through: &stmtql.ThroughOptions{
				Attributes: &stmtql.AttributeOptions{Only: []any{"role"}},
				Where:      stmtql.WhereOptions{"role": "owner"},
			},
		}},
	})

	stmtqltest.AssertSQL(t,
		`SELECT "User"."id", "projects"."name" AS "projects.name", "projects->UserProjects"."role" AS "projects.UserProjects.role"`+
			` FROM "Users" AS "User"`+
			` LEFT OUTER JOIN "UserProjects" AS "projects->UserProjects" ON "User"."id" = "projects->UserProjects"."userId" AND "projects->UserProjects"."role" = $sequelize_1`+
			` LEFT OUTER JOIN "Projects" AS "projects" ON "projects"."id" = "projects->UserProjects"."projectId";`,
		st.Query)
	stmtqltest.AssertBind(t, map[string]any{"sequelize_1": "owner"}, st)
}

func TestSelect_IncludeAll(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
		Include:    []stmtql.Include{{All: true}},
	})

	posts := strings.Index(st.Query, `AS "posts" ON`)
	profile := strings.Index(st.Query, `AS "profile" ON`)
	projects := strings.Index(st.Query, `AS "projects" ON`)
	require.True(t, posts > 0 && profile > 0 && projects > 0, "missing joins in %s", st.Query)
	assert.True(t, posts < profile && profile < projects, "joins out of declaration order: %s", st.Query)
}

func TestSelect_IncludeErrors(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres)

	t.Run("duplicate alias", func(t *testing.T) {
		_, err := c.Select(stmtql.QueryDescriptor{
			Model: "User",
			FindOptions: stmtql.FindOptions{
				Include: []stmtql.Include{{Model: "Post"}, {Association: "posts"}},
			},
		})
		var dup stmtql.DuplicateAliasError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "posts", dup.Alias)
		assert.Equal(t, "User", dup.Parent)
	})

	t.Run("repeated association", func(t *testing.T) {
		_, err := c.Select(stmtql.QueryDescriptor{
			Model: "User",
			FindOptions: stmtql.FindOptions{
				Include: []stmtql.Include{{Association: "posts"}, {Association: "posts"}},
			},
		})
		var dup stmtql.DuplicateAliasError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "posts", dup.Alias)
	})

	t.Run("unknown association with where", func(t *testing.T) {
		_, err := c.Select(stmtql.QueryDescriptor{
			Model: "User",
			FindOptions: stmtql.FindOptions{
				Include: []stmtql.Include{{Association: "nope", Where: stmtql.WhereOptions{"id": 1}}},
			},
		})
		var invalid stmtql.InvalidAssociationReferenceError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.Equal(t, "where", invalid.Option)
		assert.Equal(t, "nope", invalid.Reference)
	})

	t.Run("order by unknown path", func(t *testing.T) {
		_, err := c.Select(stmtql.QueryDescriptor{
			Model: "User",
			FindOptions: stmtql.FindOptions{
				Order: []stmtql.OrderItem{stmtql.OrderBy([]string{"posts"}, "title", "ASC")},
			},
		})
		var invalid stmtql.InvalidAssociationReferenceError
		require.True(t, errors.As(err, &invalid), "got %v", err)
		assert.Equal(t, "order", invalid.Option)
	})

	t.Run("string where", func(t *testing.T) {
		_, err := c.Select(stmtql.QueryDescriptor{
			Model:       "User",
			FindOptions: stmtql.FindOptions{Where: "id = 1"},
		})
		var shape stmtql.InvalidPredicateShapeError
		require.True(t, errors.As(err, &shape), "got %v", err)
		assert.Equal(t, "where", shape.Clause)
	})
}

func TestSelect_NestedWhereKeyAndPathOrder(t *testing.T) {
	st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
		Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
		Where:      stmtql.WhereOptions{"$posts.title$": "Hello"},
		Order:      []stmtql.OrderItem{stmtql.OrderBy([]string{"posts"}, "title", "ASC")},
		Include: []stmtql.Include{{
			Association: "posts",
			Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
		}},
	})

	stmtqltest.AssertSQL(t,
		`SELECT "User"."id", "posts"."title" AS "posts.title" FROM "Users" AS "User"`+
			` LEFT OUTER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId"`+
			` WHERE "posts"."title" = $sequelize_1 ORDER BY "posts"."title" ASC;`,
		st.Query)
}

func TestSelect_SubQuery(t *testing.T) {
	t.Run("limit with a multi include", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"firstName"}},
			Include:    []stmtql.Include{{Association: "posts"}},
			Order:      []stmtql.OrderItem{stmtql.Asc("firstName")},
			Limit:      stmtql.Int(2),
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User".*, `+postCols+` FROM (`+
				`SELECT "User"."firstName", "User"."id" FROM "Users" AS "User" ORDER BY "User"."firstName" ASC LIMIT 2`+
				`) AS "User" LEFT OUTER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId"`+
				` ORDER BY "User"."firstName" ASC;`,
			st.Query)
	})

	t.Run("required include filters the inner rows", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"firstName"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Where:       stmtql.WhereOptions{"title": "x"},
			}},
			Limit: stmtql.Int(2),
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User".*, `+postCols+` FROM (`+
				`SELECT "User"."firstName", "User"."id" FROM "Users" AS "User"`+
				` WHERE ( SELECT "posts"."userId" FROM "Posts" AS "posts" WHERE ("posts"."userId" = "User"."id" AND "posts"."title" = $sequelize_1) LIMIT 1 ) IS NOT NULL`+
				` LIMIT 2) AS "User"`+
				` INNER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId" AND "posts"."title" = $sequelize_2;`,
			st.Query)
		stmtqltest.AssertBind(t, map[string]any{"sequelize_1": "x", "sequelize_2": "x"}, st)
	})

	t.Run("mssql required filter", func(t *testing.T) {
		st := selectUser(t, stmtql.MSSQL, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
				Required:    stmtql.Bool(true),
			}},
			Limit: stmtql.Int(2),
		})
		stmtqltest.AssertSQL(t,
			`SELECT [User].*, [posts].[title] AS [posts.title] FROM (`+
				`SELECT TOP(2) [User].[id] FROM [Users] AS [User]`+
				` WHERE ( SELECT TOP(1) [posts].[userId] FROM [Posts] AS [posts] WHERE ([posts].[userId] = [User].[id]) ) IS NOT NULL`+
				`) AS [User] INNER JOIN [Posts] AS [posts] ON [User].[id] = [posts].[userId];`,
			st.Query)
	})

	t.Run("single includes do not need it", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "profile",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"bio"}},
			}},
			Limit: stmtql.Int(2),
		})
		stmtqltest.AssertSQL(t,
			`SELECT "User"."id", "profile"."bio" AS "profile.bio" FROM "Users" AS "User"`+
				` LEFT OUTER JOIN "Profiles" AS "profile" ON "User"."id" = "profile"."userId" LIMIT 2;`,
			st.Query)
	})

	t.Run("disabled", func(t *testing.T) {
		st := selectUser(t, stmtql.Postgres, stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"id"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title"}},
			}},
			Limit:    stmtql.Int(2),
			SubQuery: stmtql.Bool(false),
		})
		assert.NotContains(t, st.Query, "FROM (")
		assert.True(t, strings.HasSuffix(st.Query, " LIMIT 2;"), st.Query)
	})
}

func TestSelect_MinifyAliases(t *testing.T) {
	c := stmtqltest.Compiler(t, stmtql.Postgres, stmtql.WithMinifyAliases())

	st, err := c.Select(stmtql.QueryDescriptor{
		Model: "User",
		FindOptions: stmtql.FindOptions{
			Attributes: &stmtql.AttributeOptions{Only: []any{"lastName"}},
			Include: []stmtql.Include{{
				Association: "posts",
				Attributes:  &stmtql.AttributeOptions{Only: []any{"title", "published"}},
			}},
		},
	})
	require.NoError(t, err)

	stmtqltest.AssertSQL(t,
		`SELECT "User"."last_name" AS "lastName", "posts"."title" AS "_0", "posts"."published" AS "_1" FROM "Users" AS "User"`+
			` LEFT OUTER JOIN "Posts" AS "posts" ON "User"."id" = "posts"."userId";`,
		st.Query)
	assert.Equal(t, map[string]string{"_0": "posts.title", "_1": "posts.published"}, st.Aliases)
}
