// Package clientcli provides the operations behind the manta-cli command:
// listing, directory management, upload, download, delete and object info
// against a storage account, with requests signed by the account's RSA key.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	cfg := &clientcli.Config{
//		URL:     "http://localhost:5709",
//		Account: "alice",
//		KeyPath: "~/.ssh/id_rsa",
//	}
//
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath:  "./file.txt",
//		RemotePath: "documents/file.txt",
//		Parents:    true,
//	})
//
// Remote paths are "container/dir/name" relative to the account's storage
// root. An empty path passed to List lists the containers.
//
// # Profile Configuration
//
// Use profiles to manage several accounts:
//
//	configFile, err := clientcli.LoadConfigFile("~/.manta/config.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := clientcli.MergeConfig(clientcli.ConfigFromProfile(profile), clientcli.ConfigFromEnv())
//	client, err := clientcli.New(cfg)
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
