// Package mathtex turns plain-language descriptions of mathematics into
// LaTeX with a language model and typesets the result with KaTeX in
// headless Chrome.
//
// # Quick Start
//
// Create a converter, convert a description, and close when done:
//
//	conv, err := mathtex.NewConverter(mathtex.WithLLM(mathtex.LLMConfig{
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, "the quadratic formula", mathtex.FormatPNG)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("formula.png", result.Output, 0644)
//
// The result carries the model reply (result.Result) next to the exported
// bytes. When KaTeX rejects the LaTeX, the document shows FallbackText and
// result.Fallback is set; this is not an error.
//
// # Conversion Pipeline
//
//  1. The description is sent to the model with a fixed system prompt
//  2. The reply is parsed into a Result (latex and explanation)
//  3. The engine is loaded into the page once, concurrently with step 1
//  4. The LaTeX is typeset into the page and exported (html, png, pdf)
//
// The tex and json formats stop after step 2 and never start a browser.
//
// # Interactive Use
//
// A Controller tracks one input and its latest conversion. Replies to
// superseded requests are discarded, so only the most recent trigger
// settles the state:
//
//	ctl := conv.Controller()
//	defer ctl.Close()
//
//	ctl.Trigger("sum of the first n integers")
//	st, err := ctl.Wait(ctx)
//	if st.Phase == mathtex.PhaseFailed {
//	    fmt.Println(st.Message)
//	}
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to manage multiple browser instances:
//
//	pool := mathtex.NewConverterPool(4, opts...)
//	defer pool.Close()
//
//	conv, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(conv)
//
// # Browser Requirements
//
// Page formats require Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, use WithNoSandbox or set ROD_NO_SANDBOX=1.
// Set ROD_BROWSER_BIN to use a custom Chrome binary. The engine is fetched from
// the KaTeX CDN unless WithEngine points at local copies.
package mathtex
