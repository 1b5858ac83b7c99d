package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-oidc/pkg/claims"
	"github.com/tendant/simple-oidc/pkg/config"
	"github.com/tendant/simple-oidc/pkg/scope"
)

type translateOptions struct {
	AttributesFile string
	Scopes         string
	ClaimsRequest  string
}

func init() {
	var topts translateOptions

	translateCmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate an attribute set into ID token and userinfo claims",
		Long: "Runs the configured claim translation table against a JSON attribute set.\n" +
			"Attribute values may be strings or arrays of strings.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return err
			}
			attrs, err := readAttributes(topts.AttributesFile)
			if err != nil {
				return err
			}
			out, err := translate(cfg.OIDC, attrs, scope.Split(topts.Scopes), topts.ClaimsRequest)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	translateCmd.Flags().StringVar(&topts.AttributesFile, "attrs", "", "JSON file with the identity attributes.")
	translateCmd.Flags().StringVar(&topts.Scopes, "scopes", "openid", "Space separated scopes.")
	translateCmd.Flags().StringVar(&topts.ClaimsRequest, "claims", "", "Optional claims request parameter (JSON).")
	_ = translateCmd.MarkFlagRequired("attrs")

	rootCmd.AddCommand(translateCmd)
}

// scopeList lets every requested scope through Finalize; there is no client
// to narrow against.
type scopeList []string

func (l scopeList) GetScopes() []string { return l }

// translation is the output of the translate command.
type translation struct {
	Scopes   []string      `json:"scopes"`
	IDToken  claims.Claims `json:"id_token"`
	UserInfo claims.Claims `json:"userinfo"`
}

func translate(cfg config.OIDCConfig, attrs claims.Attributes, scopes []string, rawRequest string) (*translation, error) {
	catalog, translator, err := loadTranslation(cfg)
	if err != nil {
		return nil, err
	}
	request, err := claims.ParseClaimsRequest(rawRequest)
	if err != nil {
		return nil, err
	}

	granted := scope.IDs(catalog.Finalize(scopes, scopeList(scopes)))
	scoped, err := translator.Extract(granted, attrs)
	if err != nil {
		return nil, err
	}
	idExtra, err := translator.ExtractAdditionalIDTokenClaims(request.IDTokenClaims(), attrs)
	if err != nil {
		return nil, err
	}
	infoExtra, err := translator.ExtractAdditionalUserInfoClaims(request.UserInfoClaims(), attrs)
	if err != nil {
		return nil, err
	}

	out := &translation{Scopes: granted, IDToken: claims.Claims{}, UserInfo: claims.Claims{}}
	for k, v := range idExtra {
		out.IDToken[k] = v
	}
	for k, v := range scoped {
		out.UserInfo[k] = v
		if cfg.ScopeClaimsInIDToken {
			out.IDToken[k] = v
		}
	}
	for k, v := range infoExtra {
		out.UserInfo[k] = v
	}
	return out, nil
}

func readAttributes(path string) (claims.Attributes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attributes %s: %w", path, err)
	}
	return parseAttributes(data)
}

func parseAttributes(data []byte) (claims.Attributes, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("attributes must be a JSON object: %w", err)
	}

	attrs := make(claims.Attributes, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case string:
			attrs[name] = []string{v}
		case []interface{}:
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, fmt.Errorf("attribute %s: values must be strings", name)
				}
				attrs[name] = append(attrs[name], s)
			}
		default:
			return nil, fmt.Errorf("attribute %s: expected a string or an array of strings", name)
		}
	}
	return attrs, nil
}
