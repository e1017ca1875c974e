// Command rehearsal-smoke walks one rehearsal through the wizard against a
// running server and prints every response.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"

	"github.com/fatih/color"
)

type smokeClient struct {
	baseURL string
	http    *http.Client
}

func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func (c *smokeClient) send(method, path string, body interface{}) (map[string]interface{}, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		color.Red("Status: %s", resp.Status)
		prettyPrint(respBody)
		return nil, fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(respBody)

	out := map[string]interface{}{}
	_ = json.Unmarshal(respBody, &out)
	return out, nil
}

// data unwraps the {success, code, message, data} envelope of wizard routes.
func data(res map[string]interface{}) map[string]interface{} {
	d, _ := res["data"].(map[string]interface{})
	return d
}

func must(res map[string]interface{}, err error) map[string]interface{} {
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	return res
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "server base URL")
	videoURL := flag.String("video", "https://res.cloudinary.com/demo/video/upload/v1/samples/elephants.mp4", "video URL to attach")
	analyze := flag.Bool("analyze", false, "call the analysis engine through the server")
	keep := flag.Bool("keep", false, "keep the speech instead of exiting the wizard")
	flag.Parse()

	jar, _ := cookiejar.New(nil)
	c := &smokeClient{baseURL: *baseURL, http: &http.Client{Jar: jar}}

	color.Cyan("Starting rehearsal wizard smoke test against %s\n", *baseURL)

	color.Yellow("\n1. Start wizard")
	state := data(must(c.send("POST", "/wizard/start", map[string]string{"name": "Smoke test speech"})))
	rehearsalId, _ := state["rehearsalId"].(string)
	speechId, _ := state["speechId"].(string)

	color.Yellow("\n2. Choose delivery analysis")
	must(c.send("PATCH", "/rehearsal/type/"+rehearsalId, map[string]interface{}{"analysis": []string{"delivery"}}))

	color.Yellow("\n3. Next from type (content is skipped)")
	state = data(must(c.send("POST", "/wizard/rehearsal/"+rehearsalId+"/next", map[string]string{"step": "type"})))
	if state["step"] != "video" {
		color.Red("Expected video step, got %v", state["step"])
		os.Exit(1)
	}

	color.Yellow("\n4. Attach video")
	must(c.send("PATCH", "/rehearsal/video_url/"+rehearsalId, map[string]interface{}{"videoUrl": *videoURL, "duration": 42.0}))

	color.Yellow("\n5. Next from video")
	must(c.send("POST", "/wizard/rehearsal/"+rehearsalId+"/next", map[string]string{"step": "video"}))

	if *analyze {
		color.Yellow("\n6. Analyze")
		must(c.send("POST", "/rehearsal/analyze/"+rehearsalId, nil))
	}

	color.Yellow("\n7. Speech summary")
	must(c.send("GET", "/speech/"+speechId+"/summary", nil))

	if *keep {
		color.Cyan("\nDone; kept speech %s", speechId)
		return
	}

	color.Yellow("\n8. Exit wizard (deletes the rehearsal and the now empty speech)")
	res := data(must(c.send("POST", "/wizard/exit", map[string]bool{"confirm": true})))
	if res["speechDeleted"] != true {
		color.Red("Expected the speech to be deleted")
		os.Exit(1)
	}

	color.Cyan("\nDone")
}
