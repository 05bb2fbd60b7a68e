package render_test

import (
	"context"
	"fmt"

	"github.com/vnykmshr/scriptflow/pkg/render"
	"github.com/vnykmshr/scriptflow/pkg/script"
)

func ExampleRenderer_Execute() {
	base := script.NewMemoryEntity(1, "Outpost", script.Base)
	lcd := base.AddDevice("LCD Crew", "")
	base.AddDevice("Script:LCD Crew", `{{range split "ana,bo,cyd" ","}}{{title .}}
{{end}}`)

	job, err := script.Build(base, "Script:LCD Crew")
	if err != nil {
		panic(err)
	}

	r, _ := render.New(render.Config{})
	if err := r.Execute(context.Background(), job); err != nil {
		panic(err)
	}
	fmt.Println(lcd.Text())
	// Output:
	// Ana
	// Bo
	// Cyd
}
