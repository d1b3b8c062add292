package codegen

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/hkuds/upilot/internal/page"
)

// TemplateGenerator builds scripts from built-in templates. It needs no API
// key and serves as the fallback when no model provider is configured.
type TemplateGenerator struct {
	// Credentials are filled into login scripts when set.
	Username string
	Password string
}

func (g *TemplateGenerator) Name() string { return "template" }

// Generate picks the login template when the page looks like an auth wall and
// a usable credential form was found, the generic template otherwise.
func (g *TemplateGenerator) Generate(ctx context.Context, req Request) (string, error) {
	data := templateData{
		Summary:  pageSummary(req),
		Username: g.Username,
		Password: g.Password,
	}

	if req.Page != nil && req.Page.AuthWall.Detected {
		data.UserSelector, data.PassSelector, data.SubmitSelector = loginSelectors(req.Ranked)
		if data.PassSelector != "" {
			return render(loginTemplate, data)
		}
	}
	return render(genericTemplate, data)
}

type templateData struct {
	Summary        string
	Username       string
	Password       string
	UserSelector   string
	PassSelector   string
	SubmitSelector string
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}
	return buf.String(), nil
}

// loginSelectors digs the credential form selectors out of the ranked
// elements. The password field anchors the choice; a non-password high-tier
// input becomes the username field.
func loginSelectors(ranked page.RankedElements) (user, pass, submit string) {
	for _, el := range ranked.High {
		switch el.Kind {
		case page.KindInput:
			if el.Attributes["type"] == "password" {
				if pass == "" {
					pass = el.SelectorHint
				}
			} else if user == "" {
				user = el.SelectorHint
			}
		case page.KindButton:
			if submit == "" {
				submit = el.SelectorHint
			}
		}
	}
	return user, pass, submit
}

// Script preamble shared by both templates: driver setup per backend and the
// result-file protocol helpers.
const scriptPrelude = `#!/usr/bin/env python3
# Generated automation script.
{{if .Summary}}# Page analysis:
{{range splitLines .Summary}}#   {{.}}
{{end}}{{end}}import json
import os
import sys
import traceback

from selenium import webdriver
from selenium.webdriver.common.by import By

RESULT_FILE = os.environ["RESULT_FILE"]
BACKEND = os.environ.get("BACKEND", "chrome")
TARGET_URL = os.environ["TARGET_URL"]
ARTIFACT_DIR = os.environ.get("ARTIFACT_DIR", ".")

logs = []
screenshots = []


def log(msg):
    logs.append(msg)
    print(msg)


def report(success, error=""):
    with open(RESULT_FILE, "w") as f:
        json.dump({
            "success": success,
            "error": error,
            "logs": logs,
            "screenshots": screenshots,
        }, f)


def make_driver():
    if BACKEND == "edge":
        options = webdriver.EdgeOptions()
        options.add_argument("--headless=new")
        return webdriver.Edge(options=options)
    if BACKEND == "firefox":
        options = webdriver.FirefoxOptions()
        options.add_argument("-headless")
        return webdriver.Firefox(options=options)
    options = webdriver.ChromeOptions()
    options.add_argument("--headless=new")
    options.add_argument("--no-sandbox")
    options.add_argument("--disable-dev-shm-usage")
    return webdriver.Chrome(options=options)


def screenshot(driver, name):
    path = os.path.join(ARTIFACT_DIR, name)
    driver.save_screenshot(path)
    screenshots.append(path)

`

var templateFuncs = template.FuncMap{
	"splitLines": splitLines,
}

var loginTemplate = template.Must(template.New("login").Funcs(templateFuncs).Parse(scriptPrelude + `
def main():
    driver = make_driver()
    try:
        log("navigating to " + TARGET_URL)
        driver.get(TARGET_URL)
        screenshot(driver, "before_login.png")

        driver.find_element(By.CSS_SELECTOR, {{printf "%q" .UserSelector}}).send_keys({{printf "%q" .Username}})
        log("filled username field")
        driver.find_element(By.CSS_SELECTOR, {{printf "%q" .PassSelector}}).send_keys({{printf "%q" .Password}})
        log("filled password field")
{{if .SubmitSelector}}        driver.find_element(By.CSS_SELECTOR, {{printf "%q" .SubmitSelector}}).click()
        log("clicked submit")
{{end}}        screenshot(driver, "after_login.png")
        log("final url: " + driver.current_url)
        report(True)
    except Exception as exc:
        traceback.print_exc()
        report(False, str(exc))
        sys.exit(1)
    finally:
        driver.quit()


main()
`))

var genericTemplate = template.Must(template.New("generic").Funcs(templateFuncs).Parse(scriptPrelude + `
def main():
    driver = make_driver()
    try:
        log("navigating to " + TARGET_URL)
        driver.get(TARGET_URL)
        log("title: " + driver.title)
        screenshot(driver, "page.png")
        report(True)
    except Exception as exc:
        traceback.print_exc()
        report(False, str(exc))
        sys.exit(1)
    finally:
        driver.quit()


main()
`))
