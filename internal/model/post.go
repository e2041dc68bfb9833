package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedPost is returned when the upstream JSON does not contain a post.
var ErrMalformedPost = errors.New("malformed upstream post payload")

// Post is the subset of a Reddit post used to build a preview.
type Post struct {
	Title    string
	Selftext string
	Image    *Image
}

// Image is the representative preview image of a post.
type Image struct {
	URL    string
	Width  int
	Height int
}

// listing mirrors the Reddit JSON envelope returned for a post permalink.
type listing struct {
	Data struct {
		Children []struct {
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	Title    string `json:"title"`
	Selftext string `json:"selftext"`
	Preview  *struct {
		Images []struct {
			Source struct {
				URL    string `json:"url"`
				Width  int    `json:"width"`
				Height int    `json:"height"`
			} `json:"source"`
		} `json:"images"`
	} `json:"preview"`
}

// DecodePost reads a Reddit post permalink response and returns the first
// child of the first listing. Any shape mismatch is reported as ErrMalformedPost.
func DecodePost(r io.Reader) (*Post, error) {
	var listings []listing
	if err := json.NewDecoder(r).Decode(&listings); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPost, err)
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings", ErrMalformedPost)
	}
	children := listings[0].Data.Children
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: first listing has no children", ErrMalformedPost)
	}

	data := children[0].Data
	post := &Post{
		Title:    data.Title,
		Selftext: data.Selftext,
	}
	if data.Preview != nil && len(data.Preview.Images) > 0 {
		src := data.Preview.Images[0].Source
		post.Image = &Image{
			URL:    src.URL,
			Width:  src.Width,
			Height: src.Height,
		}
	}
	return post, nil
}
