// Package example is a small posts and tags API served with flowroute, used
// by the flowdemo command.
package example

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"

	"github.com/ridge/flowroute"
	"github.com/ridge/flowroute/thttp"
	"go.uber.org/zap"
)

func absent(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

var parseID = flowroute.Typed(func(_ context.Context, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid post ID %q: %w", s, err)
	}
	return id, nil
})

var postIDParam = flowroute.Schema{"postId": "required,numeric"}

// notFound is the body of 404 responses
type notFound struct {
	Message string `json:"message"`
}

func isNotFound(v any) bool {
	_, ok := v.(notFound)
	return ok
}

// orNotFound answers 404 for a missing value and status for anything else
func orNotFound(status int) flowroute.Step {
	return flowroute.Compose(
		flowroute.Pure(func(v any) any {
			if absent(v) {
				return notFound{Message: ErrPostNotFound.Error()}
			}
			return v
		}),
		flowroute.SelectStatus(
			flowroute.Status(http.StatusNotFound, isNotFound),
			flowroute.Status(status, flowroute.Always),
		),
	)
}

// postSummary is the public view of a post with its tags
var postSummary = flowroute.Projection{
	"id":     flowroute.P("0.id"),
	"title":  flowroute.P("0.title"),
	"author": flowroute.P("0.author"),
	"tags":   flowroute.FieldFunc(tagNames),
}

func tagNames(src any) any {
	tags, _ := flowroute.Get(flowroute.P("1"), src)
	names := []string{}
	for _, tag := range tags.([]*Tag) {
		names = append(names, tag.Name)
	}
	return names
}

// Routes returns the routes of the demo API
func Routes(store *Store, cfg Config) []flowroute.Route {
	auth := Authenticate(cfg.Tokens)
	timeout := func(step flowroute.Step) flowroute.Step {
		return flowroute.Timeout(cfg.RequestTimeout, step)
	}

	findPost := timeout(flowroute.Typed(store.PostByID))
	findTags := timeout(flowroute.Typed(store.TagsByPost))

	return []flowroute.Route{
		{
			Method: http.MethodGet,
			Path:   "/posts",
			Handler: flowroute.Return(func(c *flowroute.Context) (any, error) {
				return store.AllPosts(c.Context())
			}),
		},
		{
			Method: http.MethodPost,
			Path:   "/posts",
			Validation: &flowroute.Validation{
				Body: flowroute.Schema{
					"title": "required,min=3,max=200",
					"body":  "required",
				},
			},
			Middleware: []flowroute.Link{auth},
			Handler: flowroute.Flow(
				flowroute.Compute(func(c *flowroute.Context) (any, error) {
					body, err := c.Fields(flowroute.SectionBody)
					if err != nil {
						return nil, err
					}
					title, _ := body["title"].(string)
					text, _ := body["body"].(string)
					post, err := store.CreatePost(c.Context(), Post{
						Title:  title,
						Body:   text,
						Author: c.MustGet(userKey).(string),
					})
					if err != nil {
						return nil, err
					}
					if location, err := thttp.AbsoluteURL(c.Request, fmt.Sprintf("/posts/%d", post.ID)); err == nil {
						c.Writer.Header().Set("Location", location)
					}
					c.Logger().Info("Post created", zap.Int("postID", post.ID))
					return post, nil
				}),
				flowroute.SelectStatus(flowroute.Status(http.StatusCreated, flowroute.Always)),
			),
		},
		{
			Path:       "/posts/:postId",
			Validation: &flowroute.Validation{Params: postIDParam},
			Handler: flowroute.Keyed{
				http.MethodGet: flowroute.Flow(
					flowroute.Extract("params.postId"),
					parseID,
					findPost,
					orNotFound(http.StatusOK),
				),
				http.MethodDelete: flowroute.Handler(func(c *flowroute.Context) error {
					return flowroute.Chain{auth, flowroute.Flow(
						flowroute.Extract("params.postId"),
						parseID,
						flowroute.Typed(store.DeletePost),
						flowroute.Pure(func(v any) any {
							if v.(bool) {
								return nil
							}
							return notFound{Message: ErrPostNotFound.Error()}
						}),
						flowroute.SelectStatus(
							flowroute.Status(http.StatusNotFound, isNotFound),
							flowroute.Status(http.StatusNoContent, flowroute.Always),
						),
					)}.Run(c)
				}),
			},
		},
		{
			Method:     http.MethodGet,
			Path:       "/tags/:postId",
			Validation: &flowroute.Validation{Params: postIDParam},
			Middleware: []flowroute.Link{auth},
			Handler: flowroute.Flow(
				flowroute.Extract("params.postId"),
				parseID,
				findTags,
			),
		},
		{
			Method:     http.MethodPost,
			Path:       "/tags/:postId",
			Validation: &flowroute.Validation{Params: postIDParam, Body: flowroute.Schema{"name": "required,alphanum,max=32"}},
			Middleware: []flowroute.Link{auth},
			Handler: flowroute.Flow(
				flowroute.Compute(func(c *flowroute.Context) (any, error) {
					id, err := strconv.Atoi(c.Param("postId"))
					if err != nil {
						return nil, err
					}
					name, _ := flowroute.Get(flowroute.P("body.name"), c)
					tag, err := store.AddTag(c.Context(), id, fmt.Sprint(name))
					if errors.Is(err, ErrPostNotFound) {
						return nil, nil
					}
					return tag, err
				}),
				orNotFound(http.StatusCreated),
			),
		},
		{
			Method:     http.MethodGet,
			Path:       "/summary/:postId",
			Validation: &flowroute.Validation{Params: postIDParam},
			Handler: flowroute.Flow(
				flowroute.Extract("params.postId"),
				parseID,
				flowroute.All(findPost, findTags),
				func(ctx context.Context, v any) (any, error) {
					if post, _ := flowroute.Get(flowroute.P("0"), v); absent(post) {
						return nil, nil
					}
					return postSummary.Step()(ctx, v)
				},
				orNotFound(http.StatusOK),
			),
		},
		{
			Method: http.MethodGet,
			Path:   "/healthz",
			Handler: flowroute.Return(func(*flowroute.Context) (any, error) {
				return map[string]any{"status": "ok", "time": time.Now().UTC()}, nil
			}),
		},
	}
}
