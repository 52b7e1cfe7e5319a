package domain

// Annotation keys written by the renderers.
const (
	AnnotationAccountID      = "amazonaws.com/account-id"
	AnnotationRegion         = "amazonaws.com/region"
	AnnotationARN            = "amazonaws.com/arn"
	AnnotationEKSClusterName = "amazonaws.com/eks-cluster-name"
	AnnotationEnabledRegions = "amazonaws.com/enabled-regions"

	AnnotationK8sAWSID         = "kubernetes.io/x-k8s-aws-id"
	AnnotationK8sAuthProvider  = "kubernetes.io/auth-provider"
	AnnotationK8sAPIServer     = "kubernetes.io/api-server"
	AnnotationK8sAWSAssumeRole = "kubernetes.io/aws-assume-role"

	AnnotationManagedBy = "catalog-provider/managed-by"
	AnnotationSource    = "catalog-provider/source"
)

// Raw record field names shared between inventory clients and renderers.
const (
	FieldName             = "name"
	FieldARN              = "arn"
	FieldClusterTypeValue = "clusterTypeValue"
	FieldEndpoint         = "endpoint"
	FieldRoleARN          = "roleArn"
	FieldVersion          = "version"
	FieldStatus           = "status"
	FieldPlatformVersion  = "platformVersion"
	FieldTags             = "tags"
	FieldAccountID        = "accountId"
	FieldRegions          = "regions"
	FieldUserID           = "userId"
	FieldID               = "id"
)
