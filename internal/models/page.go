package models

import "time"

// Page represents a Confluence page as returned by the content API.
type Page struct {
	ID      string   `json:"id"`
	Type    string   `json:"type"`
	Status  string   `json:"status,omitempty"`
	Title   string   `json:"title"`
	Space   *Space   `json:"space,omitempty"`
	Version *Version `json:"version,omitempty"`
	Body    *Body    `json:"body,omitempty"`
}

// Space represents a Confluence space.
type Space struct {
	ID   int    `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Version carries the page's current version number and last-modified
// information when the listing is expanded with "version".
type Version struct {
	Number int    `json:"number"`
	When   string `json:"when,omitempty"`
	By     *User  `json:"by,omitempty"`
}

// User represents a Confluence account reference.
type User struct {
	AccountID   string `json:"accountId,omitempty"`
	Username    string `json:"username,omitempty"`
	PublicName  string `json:"publicName,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Body holds page content in storage representation.
type Body struct {
	Storage Storage `json:"storage"`
}

type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// PageList is the paged envelope returned by the content listing endpoint.
type PageList struct {
	Results []Page `json:"results"`
	Start   int    `json:"start"`
	Limit   int    `json:"limit"`
	Size    int    `json:"size"`
}

// PageHistory is the response of the content history endpoint.
type PageHistory struct {
	Latest      bool         `json:"latest"`
	CreatedBy   *User        `json:"createdBy,omitempty"`
	CreatedDate string       `json:"createdDate,omitempty"`
	LastUpdated *LastUpdated `json:"lastUpdated,omitempty"`
}

// LastUpdated describes the most recent edit of a page.
type LastUpdated struct {
	By   *User  `json:"by,omitempty"`
	When string `json:"when"`
}

// Label is a single label attached to a page.
type Label struct {
	ID     string `json:"id,omitempty"`
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// LabelList is the paged envelope returned by the label endpoint.
type LabelList struct {
	Results []Label `json:"results"`
	Start   int     `json:"start"`
	Limit   int     `json:"limit"`
	Size    int     `json:"size"`
}

// PageUpdate is the request body for overwriting a page's content.
type PageUpdate struct {
	Version VersionRef `json:"version"`
	Type    string     `json:"type"`
	Title   string     `json:"title"`
	Body    *Body      `json:"body,omitempty"`
}

type VersionRef struct {
	Number int `json:"number"`
}

// ParseWhen parses the timestamp format Confluence uses for version and
// history "when" fields, e.g. "2023-11-01T12:30:00.000Z".
func ParseWhen(when string) (time.Time, error) {
	return time.Parse(time.RFC3339, when)
}
