package cmd

import (
	"fmt"

	"github.com/chinmay1088/mempool/api"
	"github.com/chinmay1088/mempool/chains/bitcoin"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var knownNetworks = []string{
	api.NetworkMainnet,
	api.NetworkTestnet,
	api.NetworkTestnet4,
	api.NetworkSignet,
	"regtest",
}

type networkInfo struct {
	Name    string `json:"name"`
	HRP     string `json:"bech32_hrp"`
	BaseURL string `json:"base_url,omitempty"`
	Current bool   `json:"current"`
}

func listNetworks(current, currentURL string) ([]networkInfo, error) {
	infos := make([]networkInfo, 0, len(knownNetworks))
	for _, name := range knownNetworks {
		params, err := bitcoin.ParamsForNetwork(name)
		if err != nil {
			return nil, err
		}
		info := networkInfo{Name: name, HRP: params.Bech32HRPSegwit, Current: name == current}
		if url, err := api.BaseURLForNetwork(name); err == nil {
			info.BaseURL = url
		}
		if info.Current {
			info.BaseURL = currentURL
		}
		infos = append(infos, info)
	}
	return infos, nil
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the selected network and the ones available",
	Long: `Show the network in use and its API base URL, plus every network the client
knows about. Select one with --network or the network key of the config file.

Examples:
  mempool network
  mempool -n signet network`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, err := commandClient(cmd)
		if err != nil {
			return err
		}
		infos, err := listNetworks(cfg.Network, client.BaseURL())
		if err != nil {
			return err
		}
		if globalFlags.jsonOutput {
			return printJSON(infos)
		}
		for _, info := range infos {
			marker, name := "  ", fmt.Sprintf("%-10s", info.Name)
			if info.Current {
				marker, name = color.GreenString("* "), color.GreenString(name)
			}
			url := info.BaseURL
			if url == "" {
				url = "(set --url)"
			}
			fmt.Printf("%s%s %-6s %s\n", marker, name, info.HRP, url)
		}
		return nil
	},
}
