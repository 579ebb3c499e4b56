package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"scrapesync-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	toast_already_signed_in = "You are already signed in."
	toast_signed_in         = "Signed in successfully."
	submit_value            = "Go to dashboard"
)

func (c *client) ensureSignedIn(ctx context.Context, signInURL, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: sign-in credentials are not configured", ErrNotConfigured)
	}

	c.loginMutex.Lock()
	defer c.loginMutex.Unlock()

	doc, res, err := c.getDocument(ctx, signInURL)
	if err != nil {
		return err
	}
	if htmlutil.ContainsText(doc.Selection, ".toast-body", toast_already_signed_in) {
		c.tel.ReportDebug(report_client_ensure_signedin, "session still valid")
		return nil
	}

	form := doc.Find("form").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.Find("#developer_email").Length() > 0
	}).First()
	if form.Length() == 0 {
		return fmt.Errorf("%w: sign in form on %s", ErrElementNotFound, signInURL)
	}

	values := url.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		values.Add(name, input.AttrOr("value", ""))
	})

	emailName := form.Find("#developer_email").AttrOr("name", "")
	if emailName == "" {
		return fmt.Errorf("%w: email input has no name", ErrElementNotFound)
	}
	passwordName := form.Find("#developer_password").AttrOr("name", "")
	if passwordName == "" {
		return fmt.Errorf("%w: password input has no name", ErrElementNotFound)
	}
	values.Set(emailName, email)
	values.Set(passwordName, password)

	submit := form.Find("input[type=submit]").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return sel.AttrOr("value", "") == submit_value
	}).First()
	if submit.Length() == 0 {
		return fmt.Errorf("%w: submit button %q", ErrElementNotFound, submit_value)
	}
	if name := submit.AttrOr("name", ""); name != "" {
		values.Set(name, submit_value)
	}

	base := res.RawResponse.Request.URL
	action, err := base.Parse(form.AttrOr("action", ""))
	if err != nil {
		return fmt.Errorf("resolve form action: %w", err)
	}

	res, err = c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(values).
		Post(action.String())
	if err != nil {
		return fmt.Errorf("submit sign in form: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: unexpected status %s", ErrLoginFailed, res.Status())
	}

	result, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fmt.Errorf("parse sign in result: %w", err)
	}
	if !htmlutil.ContainsText(result.Selection, ".toast-body", toast_signed_in) {
		c.tel.ReportWarning(report_client_ensure_signedin, "confirmation toast missing", action.String())
		return fmt.Errorf("%w: no confirmation after submitting the form", ErrLoginFailed)
	}

	c.tel.ReportDebug(report_client_ensure_signedin, "signed in", email)
	return nil
}
