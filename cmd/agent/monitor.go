package agent

import "github.com/spf13/cobra"

func initMonitorFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("monitor.interval", defaultCfg.Monitor.Interval, "-> Host collector interval (主机采集间隔)")
	f.Bool("monitor.host.enable", defaultCfg.Monitor.Host.Enable, "-> Export host load and sensor temperatures (启用主机采集器)")
}
