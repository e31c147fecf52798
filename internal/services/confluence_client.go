package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	. "confluence-lifecycle/internal/common"
	. "confluence-lifecycle/internal/interfaces"
	"confluence-lifecycle/internal/models"

	"github.com/go-resty/resty/v2"
)

type confluenceClient struct {
	client    *resty.Client
	apiPrefix string
}

// NewConfluenceClient builds a REST client for the configured instance.
// Cloud instances serve the content API under /wiki, server installs at
// the root.
func NewConfluenceClient(config *ConfluenceConfig) ConfluenceClient {
	client := resty.New().
		SetBaseURL(config.Hostname).
		SetBasicAuth(config.Username, config.APIToken).
		SetTimeout(time.Duration(config.Timeout)*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	apiPrefix := "/rest/api"
	if config.Cloud {
		apiPrefix = "/wiki/rest/api"
	}

	return &confluenceClient{
		client:    client,
		apiPrefix: apiPrefix,
	}
}

func (cc *confluenceClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User

	resp, err := cc.client.R().
		SetContext(ctx).
		SetResult(&user).
		Get(cc.apiPrefix + "/user/current")

	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "AUTH_CHECK", "failed to reach Confluence")
	}

	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return nil, NewAuthError("AUTH_REJECTED",
			fmt.Sprintf("Confluence rejected credentials with status %d", resp.StatusCode()))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, NewConfluenceError("AUTH_CHECK",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return &user, nil
}

func (cc *confluenceClient) GetSpacePages(ctx context.Context, space string, start, limit int) (*models.PageList, error) {
	var pages models.PageList

	resp, err := cc.client.R().
		SetContext(ctx).
		SetQueryParam("spaceKey", space).
		SetQueryParam("type", "page").
		SetQueryParam("status", "current").
		SetQueryParam("expand", "version").
		SetQueryParam("start", strconv.Itoa(start)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&pages).
		Get(cc.apiPrefix + "/content")

	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "PAGE_LIST", "failed to list space pages")
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, NewConfluenceError("PAGE_LIST",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return &pages, nil
}

func (cc *confluenceClient) GetPageHistory(ctx context.Context, pageID string) (*models.PageHistory, error) {
	var history models.PageHistory

	resp, err := cc.client.R().
		SetContext(ctx).
		SetResult(&history).
		Get(cc.apiPrefix + "/content/" + pageID + "/history")

	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "PAGE_HISTORY", "failed to fetch page history")
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, NewConfluenceError("PAGE_HISTORY",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return &history, nil
}

func (cc *confluenceClient) GetPageLabels(ctx context.Context, pageID string) ([]models.Label, error) {
	var labels models.LabelList

	resp, err := cc.client.R().
		SetContext(ctx).
		SetResult(&labels).
		Get(cc.apiPrefix + "/content/" + pageID + "/label")

	if err != nil {
		return nil, WrapError(err, ErrorTypeNetwork, "LABEL_GET", "failed to fetch page labels")
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, NewConfluenceError("LABEL_GET",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return labels.Results, nil
}

func (cc *confluenceClient) AddPageLabel(ctx context.Context, pageID, label string) error {
	resp, err := cc.client.R().
		SetContext(ctx).
		SetBody([]models.Label{{Prefix: "global", Name: label}}).
		Post(cc.apiPrefix + "/content/" + pageID + "/label")

	if err != nil {
		return WrapError(err, ErrorTypeNetwork, "LABEL_ADD", "failed to add page label")
	}

	if resp.StatusCode() != http.StatusOK {
		return NewLabelingError("LABEL_ADD",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return nil
}

func (cc *confluenceClient) RemovePageLabel(ctx context.Context, pageID, label string) error {
	// The query-parameter form accepts label names containing characters
	// that are not valid in a path segment, such as "=".
	resp, err := cc.client.R().
		SetContext(ctx).
		SetQueryParam("name", label).
		Delete(cc.apiPrefix + "/content/" + pageID + "/label")

	if err != nil {
		return WrapError(err, ErrorTypeNetwork, "LABEL_REMOVE", "failed to remove page label")
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return NewLabelingError("LABEL_REMOVE",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return nil
}

func (cc *confluenceClient) UpdatePage(ctx context.Context, pageID, title, body string) error {
	// The update endpoint requires the next version number, so read the
	// page's current version first.
	var current models.Page

	resp, err := cc.client.R().
		SetContext(ctx).
		SetQueryParam("expand", "version").
		SetResult(&current).
		Get(cc.apiPrefix + "/content/" + pageID)

	if err != nil {
		return WrapError(err, ErrorTypeNetwork, "PAGE_GET", "failed to fetch page before update")
	}

	if resp.StatusCode() != http.StatusOK {
		return NewConfluenceError("PAGE_GET",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	version := 1
	if current.Version != nil {
		version = current.Version.Number + 1
	}

	pageType := current.Type
	if pageType == "" {
		pageType = "page"
	}

	update := models.PageUpdate{
		Version: models.VersionRef{Number: version},
		Type:    pageType,
		Title:   title,
		Body: &models.Body{
			Storage: models.Storage{
				Value:          body,
				Representation: "storage",
			},
		},
	}

	resp, err = cc.client.R().
		SetContext(ctx).
		SetBody(update).
		Put(cc.apiPrefix + "/content/" + pageID)

	if err != nil {
		return WrapError(err, ErrorTypeNetwork, "PAGE_UPDATE", "failed to update page")
	}

	if resp.StatusCode() != http.StatusOK {
		return NewConfluenceError("PAGE_UPDATE",
			fmt.Sprintf("Confluence API returned status %d: %s", resp.StatusCode(), resp.String()))
	}

	return nil
}
