// Package cli implements the mcpadapter command: list a server's exposed
// tools and invoke them from the terminal.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/viant/mcpadapter"
	"github.com/viant/mcpadapter/auth"
	"github.com/viant/mcpadapter/schema"
	"github.com/viant/mcpadapter/session"
)

// Run parses arguments and executes the requested action.
func Run(args []string) error {
	options := &Options{}
	if _, err := flags.ParseArgs(options, args); err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	config, err := buildConfig(ctx, options)
	if err != nil {
		return err
	}
	adapter, err := mcpadapter.New(ctx, config, mcpadapter.WithListener(logEvent))
	if err != nil {
		return err
	}
	defer adapter.Shutdown()

	switch {
	case options.Call != "":
		return call(ctx, adapter, options)
	default:
		return list(adapter)
	}
}

// buildConfig merges the configuration file, if any, with flag overrides.
func buildConfig(ctx context.Context, options *Options) (*mcpadapter.Config, error) {
	config := &mcpadapter.Config{}
	if options.ConfigURL != "" {
		loaded, err := mcpadapter.LoadConfig(ctx, options.ConfigURL)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if options.URL != "" {
		config.Transport.URL = options.URL
	}
	if options.Transport != "" && config.Transport.Type == "" {
		config.Transport.Type = options.Transport
	}
	if options.Token != "" {
		config.Auth = auth.Bearer(options.Token)
	} else if len(options.Headers) > 0 {
		headers := map[string]string{}
		for _, pair := range options.Headers {
			name, value, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("invalid --header %q, expected NAME=VALUE", pair)
			}
			headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
		config.Auth = auth.Headers(headers)
	} else if options.OAuth2ConfigURL != "" {
		config.Auth = &auth.Config{
			Mode: auth.ModeOAuth2,
			OAuth2: &auth.OAuth2Config{
				ConfigURL:     options.OAuth2ConfigURL,
				EncryptionKey: options.EncryptionKey,
			},
		}
	}
	if len(options.Allow) > 0 {
		config.Policy = mcpadapter.PolicyConfig{Mode: "allowList", Allow: options.Allow}
	} else if len(options.Deny) > 0 {
		config.Policy = mcpadapter.PolicyConfig{Mode: "denyList", Deny: options.Deny}
	}
	return config, nil
}

func list(adapter *mcpadapter.Adapter) error {
	tools := adapter.ListExposedTools()
	if len(tools) == 0 {
		fmt.Println("no tools exposed")
		return nil
	}
	for _, tool := range tools {
		description := ""
		if tool.Description != nil {
			description = *tool.Description
		}
		fmt.Printf("%v\t%v\n", tool.Name, description)
	}
	return nil
}

func call(ctx context.Context, adapter *mcpadapter.Adapter, options *Options) error {
	var arguments map[string]interface{}
	if err := json.Unmarshal([]byte(options.Args), &arguments); err != nil {
		return fmt.Errorf("invalid --args: %w", err)
	}
	if !options.Stream {
		result, err := adapter.Invoke(ctx, options.Call, arguments)
		if err != nil {
			return err
		}
		fmt.Println(schema.TextOf(result))
		return nil
	}
	stream, err := adapter.InvokeStream(ctx, options.Call, arguments)
	if err != nil {
		return err
	}
	go func() {
		progress := stream.Progress()
		if progress == nil {
			return
		}
		for {
			select {
			case <-stream.Done():
				return
			case params := <-progress:
				if params.Message != nil {
					log.Printf("progress %.0f%%: %v", params.Progress*100, *params.Message)
					continue
				}
				log.Printf("progress %.0f%%", params.Progress*100)
			}
		}
	}()
	result, err := stream.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Println(schema.TextOf(result))
	return nil
}

// logEvent reports session lifecycle transitions; errors never include
// credential material.
func logEvent(event session.Event) {
	if event.Err != nil {
		log.Printf("session %v: %v", event.State, event.Err)
		return
	}
	log.Printf("session %v", event.State)
}
