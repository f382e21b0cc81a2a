package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ChromeOptions struct {
	Headless  bool
	UserAgent string
	// ExecPath overrides the browser binary chromedp looks up.
	ExecPath string
	// StartTimeout bounds launching the browser.
	StartTimeout time.Duration
}

// Chrome is a Session backed by a chromedp controlled browser tab.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	closeOnce   sync.Once
}

// NewChrome launches a browser and opens a blank tab. The browser is bound to parent, so
// cancelling parent also tears it down.
func NewChrome(parent context.Context, opts ChromeOptions) (*Chrome, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	startTimeout := opts.StartTimeout
	if startTimeout <= 0 {
		startTimeout = 30 * time.Second
	}
	// the first Run on a fresh context starts the browser and ties its lifetime to that
	// context, so it must not carry a deadline of its own
	timer := time.AfterFunc(startTimeout, cancelAlloc)
	err := chromedp.Run(tabCtx)
	if !timer.Stop() && err == nil {
		err = ErrTimeout
	}
	if err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// run executes actions on the tab bounded by timeout, ctx cancellation aborts the actions
// without closing the tab.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return classify(err)
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case strings.Contains(err.Error(), "Node with given id does not belong to the document"),
		strings.Contains(err.Error(), "Could not find node with given id"),
		strings.Contains(err.Error(), "No node with given id found"):
		return fmt.Errorf("%w: %w", ErrStale, err)
	}
	return err
}

// outcome values returned by the click scripts
const (
	outcomeOk          = "ok"
	outcomeMissing     = "missing"
	outcomeStale       = "stale"
	outcomeIntercepted = "intercepted"
)

func outcomeError(outcome, what string) error {
	switch outcome {
	case outcomeOk:
		return nil
	case outcomeMissing:
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case outcomeStale:
		return fmt.Errorf("%w: %s", ErrStale, what)
	case outcomeIntercepted:
		return fmt.Errorf("%w: %s", ErrClickIntercepted, what)
	}
	return fmt.Errorf("unexpected click outcome %q for %s", outcome, what)
}

func jsString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

// clickScript resolves the nth (0 based) node of an XPath, optionally checks its text,
// scrolls it into view and clicks it through the DOM. Clicking through the DOM instead of
// dispatching input events sidesteps overlays that would otherwise swallow the click.
func clickScript(xpath string, index int, expectText *string) string {
	expect := "null"
	if expectText != nil {
		expect = jsString(*expectText)
	}
	return fmt.Sprintf(`(function(xpath, index, expect) {
	const result = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	if (index >= result.snapshotLength) {
		return expect === null ? %q : %q;
	}
	const el = result.snapshotItem(index);
	if (!el.isConnected) {
		return %q;
	}
	if (expect !== null && (el.innerText || "").trim() !== expect) {
		return %q;
	}
	if (el.scrollIntoViewIfNeeded) {
		el.scrollIntoViewIfNeeded(true);
	} else {
		el.scrollIntoView({block: "center"});
	}
	try {
		el.click();
	} catch (e) {
		return %q;
	}
	return %q;
})(%s, %d, %s)`,
		outcomeMissing, outcomeStale,
		outcomeStale,
		outcomeStale,
		outcomeIntercepted,
		outcomeOk,
		jsString(xpath), index, expect,
	)
}

// firstMatch narrows an XPath to its first match, waiting on an XPath with BySearch
// otherwise requires every match to satisfy the condition.
func firstMatch(xpath string) string {
	return "(" + xpath + ")[1]"
}

func optionTextsScript(xpath string) string {
	return fmt.Sprintf(`(function(xpath) {
	const result = document.evaluate(xpath, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const texts = [];
	for (let i = 0; i < result.snapshotLength; i++) {
		const el = result.snapshotItem(i);
		// innerText of a hidden element still holds its text, a hidden option reads as empty
		if (el.getClientRects().length === 0) {
			texts.push("");
			continue;
		}
		texts.push((el.innerText || "").trim());
	}
	return texts;
})(%s)`, jsString(xpath))
}

func (c *Chrome) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	return c.run(ctx, timeout, chromedp.Navigate(url))
}

func (c *Chrome) WaitForElement(ctx context.Context, selector string, timeout time.Duration) error {
	return c.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.BySearch))
}

func (c *Chrome) clickVisible(ctx context.Context, selector string, timeout time.Duration) error {
	var outcome string
	err := c.run(
		ctx, timeout,
		chromedp.WaitVisible(selector, chromedp.BySearch),
		chromedp.Evaluate(clickScript(selector, 0, nil), &outcome),
	)
	if err != nil {
		return err
	}
	return outcomeError(outcome, selector)
}

func (c *Chrome) OpenDropdown(ctx context.Context, trigger string, timeout time.Duration) error {
	return c.clickVisible(ctx, trigger, timeout)
}

func (c *Chrome) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return c.clickVisible(ctx, selector, timeout)
}

func (c *Chrome) ListOptions(ctx context.Context, options string, timeout time.Duration) ([]Option, error) {
	var texts []string
	err := c.run(
		ctx, timeout,
		chromedp.WaitVisible(firstMatch(options), chromedp.BySearch),
		chromedp.Evaluate(optionTextsScript(options), &texts),
	)
	if err != nil {
		return nil, err
	}

	out := make([]Option, len(texts))
	for i, text := range texts {
		out[i] = Option{Index: i, Text: text}
	}
	return out, nil
}

func (c *Chrome) SelectOption(ctx context.Context, options string, option Option, timeout time.Duration) error {
	var outcome string
	err := c.run(
		ctx, timeout,
		chromedp.Evaluate(clickScript(options, option.Index, &option.Text), &outcome),
	)
	if err != nil {
		return err
	}
	return outcomeError(outcome, fmt.Sprintf("option %d %q", option.Index, option.Text))
}

func (c *Chrome) ReadContainerMarkup(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	var markup string
	err := c.run(
		ctx, timeout,
		chromedp.WaitReady(selector, chromedp.BySearch),
		chromedp.OuterHTML(selector, &markup, chromedp.BySearch),
	)
	if err != nil {
		return "", err
	}
	return markup, nil
}

// Close closes the tab and shuts the browser down, calling it more than once is a no-op.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.cancelTab()
		c.cancelAlloc()
	})
	return nil
}
